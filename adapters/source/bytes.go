package source

import (
	"context"

	"github.com/Skryldev/image-client/utils"
)

// Buffer is a raw-buffer-backed source.
type Buffer struct {
	data      []byte
	mediaType string
	name      string
}

// FromBytes wraps an in-memory buffer. An empty mediaType defaults to
// DefaultMediaType and an empty name to DefaultName. data is copied, so later
// changes by the caller do not affect the upload.
func FromBytes(data []byte, mediaType, name string) *Buffer {
	if mediaType == "" {
		mediaType = DefaultMediaType
	}
	if name == "" {
		name = DefaultName
	}
	return &Buffer{data: utils.CloneBytes(data), mediaType: mediaType, name: name}
}

func (b *Buffer) MediaType() string { return b.mediaType }

func (b *Buffer) Name() string { return b.name }

func (b *Buffer) Size() (int64, bool) { return int64(len(b.data)), true }

// Bytes returns a fresh copy of the buffer on every call.
func (b *Buffer) Bytes(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return utils.CloneBytes(b.data), nil
}
