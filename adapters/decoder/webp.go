package decoder

import (
	"context"
	"io"

	"golang.org/x/image/webp"

	"github.com/Skryldev/image-client/core"
)

// WebP decodes WebP images using golang.org/x/image/webp.
// NOTE: lossy and lossless stills only; animated WebP needs the vips backend.
type WebP struct{}

func NewWebP() *WebP { return &WebP{} }

func (w *WebP) CanDecode(format core.Format) bool { return format == core.FormatWebP }

func (w *WebP) Decode(ctx context.Context, r io.Reader) (*core.ImageData, error) {
	return decode(ctx, "webp.decode", core.FormatWebP, webp.Decode, r)
}
