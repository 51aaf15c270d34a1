package decoder

import (
	"context"
	"image/png"
	"io"

	"github.com/Skryldev/image-client/core"
)

// PNG decodes PNG images using the standard library.
type PNG struct{}

func NewPNG() *PNG { return &PNG{} }

func (p *PNG) CanDecode(format core.Format) bool { return format == core.FormatPNG }

func (p *PNG) Decode(ctx context.Context, r io.Reader) (*core.ImageData, error) {
	return decode(ctx, "png.decode", core.FormatPNG, png.Decode, r)
}
