package source

import (
	"context"
	"image"
	"strings"
	"sync"

	"github.com/Skryldev/image-client/core"
	apperrors "github.com/Skryldev/image-client/errors"
)

// Image is a decoded-image-backed source. Pixels are encoded on the first
// Bytes call and the result is reused afterwards.
type Image struct {
	img    *core.ImageData
	enc    core.Encoder
	format core.Format
	opts   core.EncodeOptions
	name   string

	mu   sync.Mutex
	done bool
	data []byte
	err  error
}

// FromImage encodes img with enc into format. An empty name becomes
// "image.<ext>".
func FromImage(img image.Image, enc core.Encoder, format core.Format, name string, opts core.EncodeOptions) *Image {
	return FromImageData(&core.ImageData{Image: img, Format: format}, enc, format, name, opts)
}

// FromImageData is FromImage for an already wrapped image.
func FromImageData(img *core.ImageData, enc core.Encoder, format core.Format, name string, opts core.EncodeOptions) *Image {
	if strings.TrimSpace(name) == "" {
		name = "image." + format.Extension()
	}
	return &Image{img: img, enc: enc, format: format, opts: opts, name: name}
}

func (i *Image) MediaType() string { return i.format.MediaType() }

func (i *Image) Name() string { return i.name }

// Size is known only after encoding.
func (i *Image) Size() (int64, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.done && i.err == nil {
		return int64(len(i.data)), true
	}
	return 0, false
}

func (i *Image) Bytes(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.done {
		if i.enc == nil || !i.enc.CanEncode(i.format) {
			i.err = apperrors.New(apperrors.CategoryCodec, "image.encode", apperrors.ErrUnsupportedFormat)
		} else {
			i.data, i.err = i.enc.Encode(ctx, i.img, i.opts)
		}
		i.done = true
	}
	if i.err != nil {
		return nil, i.err
	}
	return append([]byte(nil), i.data...), nil
}
