package vips

import (
	"context"
	"strings"
	"sync"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/Skryldev/image-client/core"
	apperrors "github.com/Skryldev/image-client/errors"
)

// Source is a payload source backed by a libvips image. The image is
// exported on the first Bytes call.
type Source struct {
	ref     *govips.ImageRef
	format  core.Format
	name    string
	quality int
	opts    core.EncodeOptions

	mu   sync.Mutex
	data []byte
}

// FromImageRef exports ref as format when its bytes are needed. quality 0
// uses 85; an empty name becomes "image.<ext>".
func FromImageRef(ref *govips.ImageRef, format core.Format, name string, quality int, opts core.EncodeOptions) *Source {
	if quality <= 0 {
		quality = 85
	}
	if strings.TrimSpace(name) == "" {
		name = "image." + format.Extension()
	}
	return &Source{ref: ref, format: format, name: name, quality: quality, opts: opts}
}

func (s *Source) MediaType() string { return s.format.MediaType() }

func (s *Source) Name() string { return s.name }

func (s *Source) Size() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data != nil {
		return int64(len(s.data)), true
	}
	return 0, false
}

func (s *Source) Bytes(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		if s.ref == nil {
			return nil, apperrors.New(apperrors.CategorySource, "vips.source", apperrors.ErrNilSource)
		}
		data, err := export(s.ref, s.format, s.quality, s.opts)
		if err != nil {
			return nil, err
		}
		s.data = data
	}
	return append([]byte(nil), s.data...), nil
}

var _ core.PayloadSource = (*Source)(nil)
