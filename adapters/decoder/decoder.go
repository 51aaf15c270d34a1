// Package decoder reads encoded images into core.ImageData so payloads can be
// inspected locally before upload.
package decoder

import (
	"context"
	"image"
	"io"

	"github.com/Skryldev/image-client/core"
	apperrors "github.com/Skryldev/image-client/errors"
	"github.com/Skryldev/image-client/utils"
)

// decodeFunc is a stdlib-style decode function.
type decodeFunc func(io.Reader) (image.Image, error)

// decode drains r, decodes it with fn and keeps the encoded bytes alongside
// the pixels.
func decode(ctx context.Context, op string, format core.Format, fn decodeFunc, r io.Reader) (*core.ImageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryCanceled, op, err)
	}

	buf, err := utils.DrainReader(ctx, r, 32*1024)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryCodec, op, err)
	}
	defer utils.ReleaseBuffer(buf)

	img, err := fn(utils.BytesReader(buf.Bytes()))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryCodec, op, err)
	}

	bounds := img.Bounds()
	return &core.ImageData{
		Data:   utils.CloneBytes(buf.Bytes()),
		Image:  img,
		Format: format,
		Meta: core.Metadata{
			Width:      bounds.Dx(),
			Height:     bounds.Dy(),
			Format:     format,
			ColorSpace: colorSpace(img),
			HasAlpha:   hasAlpha(img),
			SizeBytes:  int64(buf.Len()),
		},
	}, nil
}

// colorSpace returns the colour space of an image.Image.
func colorSpace(img image.Image) core.ColorSpace {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return core.ColorSpaceGray
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		return core.ColorSpaceRGBA
	case *image.CMYK:
		return core.ColorSpaceCMYK
	}
	return core.ColorSpaceRGB
}

func hasAlpha(img image.Image) bool {
	switch t := img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		return true
	case *image.Paletted:
		for _, c := range t.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}

// RegisterDefaults adds the JPEG, PNG, GIF and WebP decoders to reg.
func RegisterDefaults(reg core.Registry) {
	reg.RegisterDecoder(core.FormatJPEG, NewJPEG())
	reg.RegisterDecoder(core.FormatPNG, NewPNG())
	reg.RegisterDecoder(core.FormatGIF, NewGIF())
	reg.RegisterDecoder(core.FormatWebP, NewWebP())
}
