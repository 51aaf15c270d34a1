package decoder

import (
	"context"
	"image/jpeg"
	"io"

	"github.com/Skryldev/image-client/core"
)

// JPEG decodes JPEG images using the standard library.
type JPEG struct{}

// NewJPEG returns an initialised JPEG decoder.
func NewJPEG() *JPEG { return &JPEG{} }

func (j *JPEG) CanDecode(format core.Format) bool { return format == core.FormatJPEG }

func (j *JPEG) Decode(ctx context.Context, r io.Reader) (*core.ImageData, error) {
	return decode(ctx, "jpeg.decode", core.FormatJPEG, jpeg.Decode, r)
}
