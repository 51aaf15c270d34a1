package source

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	apperrors "github.com/Skryldev/image-client/errors"
	"github.com/Skryldev/image-client/utils"
)

// File is a file-backed source. The file is opened and read only when Bytes
// is called.
type File struct {
	path      string
	mediaType string
	name      string
	maxBytes  int64
}

// FromFile names the file at path. Media type comes from the extension.
func FromFile(path string) *File {
	name := filepath.Base(path)
	return &File{path: path, mediaType: MediaTypeFor(name), name: name}
}

// WithMediaType overrides the inferred media type.
func (f *File) WithMediaType(mt string) *File {
	cp := *f
	cp.mediaType = mt
	return &cp
}

// WithLimit caps how many bytes Bytes will read.
func (f *File) WithLimit(maxBytes int64) *File {
	cp := *f
	cp.maxBytes = maxBytes
	return &cp
}

func (f *File) MediaType() string { return f.mediaType }

func (f *File) Name() string { return f.name }

// Size stats the file; it reports false when the file cannot be stat'ed.
func (f *File) Size() (int64, bool) {
	info, err := os.Stat(f.path)
	if err != nil || !info.Mode().IsRegular() {
		return 0, false
	}
	return info.Size(), true
}

func (f *File) Bytes(ctx context.Context) ([]byte, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategorySource, "file.open", err)
	}
	defer fh.Close()
	return readAll(ctx, "file.read", fh, f.maxBytes)
}

// readAll drains r through the pooled buffers, enforcing maxBytes when set.
func readAll(ctx context.Context, op string, r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes > 0 {
		r = &utils.LimitedReader{R: r, Max: maxBytes}
	}
	buf, err := utils.DrainReader(ctx, r, 0)
	if err != nil {
		if errors.Is(err, utils.ErrLimitExceeded) {
			return nil, apperrors.New(apperrors.CategoryInput, op, apperrors.ErrPayloadTooLarge)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperrors.Wrap(apperrors.CategorySource, op, err)
	}
	defer utils.ReleaseBuffer(buf)
	return utils.CloneBytes(buf.Bytes()), nil
}
