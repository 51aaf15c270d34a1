package source

import (
	"context"
	"io"
	"sync"

	apperrors "github.com/Skryldev/image-client/errors"
)

// OpenFunc opens a handle to the payload.
type OpenFunc func(ctx context.Context) (io.ReadCloser, error)

// Handle is a handle-backed source. The handle is opened and drained on the
// first successful Bytes call; the bytes are kept so later calls return the
// same content without reopening it.
type Handle struct {
	open      OpenFunc
	mediaType string
	name      string
	size      int64 // -1 if unknown
	maxBytes  int64

	mu   sync.Mutex
	data []byte
}

// FromOpener builds a source around open. size may be -1 when unknown; an
// empty mediaType is inferred from name.
func FromOpener(open OpenFunc, mediaType, name string, size int64) *Handle {
	if mediaType == "" {
		mediaType = MediaTypeFor(name)
	}
	return &Handle{open: open, mediaType: mediaType, name: name, size: size}
}

// FromReader wraps an already open reader. The reader is consumed once and
// closed afterwards when it is an io.ReadCloser.
func FromReader(r io.Reader, mediaType, name string) *Handle {
	rc, ok := r.(io.ReadCloser)
	if !ok {
		rc = io.NopCloser(r)
	}
	return FromOpener(func(context.Context) (io.ReadCloser, error) { return rc, nil }, mediaType, name, -1)
}

// WithLimit caps how many bytes will be read from the handle.
func (h *Handle) WithLimit(maxBytes int64) *Handle {
	h.maxBytes = maxBytes
	return h
}

func (h *Handle) MediaType() string { return h.mediaType }

func (h *Handle) Name() string { return h.name }

func (h *Handle) Size() (int64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.data != nil {
		return int64(len(h.data)), true
	}
	return h.size, h.size >= 0
}

func (h *Handle) Bytes(ctx context.Context) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.data != nil {
		return append([]byte(nil), h.data...), nil
	}
	if h.open == nil {
		return nil, apperrors.New(apperrors.CategorySource, "handle.open", apperrors.ErrNilSource)
	}

	rc, err := h.open(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategorySource, "handle.open", err)
	}
	defer rc.Close()

	data, err := readAll(ctx, "handle.read", rc, h.maxBytes)
	if err != nil {
		return nil, err
	}
	h.data = data
	return append([]byte(nil), data...), nil
}
