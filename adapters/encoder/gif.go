package encoder

import (
	"bytes"
	"context"
	"image/gif"

	"github.com/Skryldev/image-client/core"
	apperrors "github.com/Skryldev/image-client/errors"
)

// GIF encodes a single-frame GIF with the standard 256 colour palette.
type GIF struct{}

func NewGIF() *GIF { return &GIF{} }

func (g *GIF) CanEncode(format core.Format) bool { return format == core.FormatGIF }

func (g *GIF) Encode(ctx context.Context, img *core.ImageData, _ core.EncodeOptions) ([]byte, error) {
	src, err := pixels(ctx, "gif.encode", img)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := gif.Encode(&buf, src, &gif.Options{NumColors: 256}); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryCodec, "gif.encode", err)
	}
	return buf.Bytes(), nil
}
