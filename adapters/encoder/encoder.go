// Package encoder serialises decoded images so they can be uploaded.
package encoder

import (
	"context"
	"image"

	"github.com/Skryldev/image-client/core"
	apperrors "github.com/Skryldev/image-client/errors"
)

// pixels extracts the image.Image an encoder works on.
func pixels(ctx context.Context, op string, img *core.ImageData) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryCanceled, op, err)
	}
	if img == nil {
		return nil, apperrors.New(apperrors.CategoryCodec, op, apperrors.ErrEmptyInput)
	}
	src, ok := img.Image.(image.Image)
	if !ok || src == nil {
		return nil, apperrors.New(apperrors.CategoryCodec, op, apperrors.ErrEmptyInput)
	}
	return src, nil
}

// RegisterDefaults adds the JPEG, PNG and GIF encoders to reg.
func RegisterDefaults(reg core.Registry, jpegQuality int) {
	reg.RegisterEncoder(core.FormatJPEG, NewJPEG(jpegQuality))
	reg.RegisterEncoder(core.FormatPNG, NewPNG())
	reg.RegisterEncoder(core.FormatGIF, NewGIF())
}
