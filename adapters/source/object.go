package source

import (
	"context"
	"path"

	"github.com/Skryldev/image-client/core"
	apperrors "github.com/Skryldev/image-client/errors"
)

// Object is a source backed by a core.ObjectStore entry. Each Bytes call
// reads the object afresh.
type Object struct {
	store     core.ObjectStore
	key       core.StorageKey
	mediaType string
	maxBytes  int64
}

// FromObject reads key from store. Media type comes from the key's extension.
func FromObject(store core.ObjectStore, key core.StorageKey) *Object {
	return &Object{store: store, key: key, mediaType: MediaTypeFor(key.Path)}
}

// WithLimit caps how many bytes will be read from the store.
func (o *Object) WithLimit(maxBytes int64) *Object {
	cp := *o
	cp.maxBytes = maxBytes
	return &cp
}

func (o *Object) MediaType() string { return o.mediaType }

func (o *Object) Name() string { return path.Base(o.key.Path) }

// Size is unknown for objects; the store is only consulted from Bytes so the
// caller's context governs every request.
func (o *Object) Size() (int64, bool) { return 0, false }

// Bytes reads the object. With a limit set, the object is stat'ed first so an
// oversized object is rejected without downloading it.
func (o *Object) Bytes(ctx context.Context) ([]byte, error) {
	if o.store == nil {
		return nil, apperrors.New(apperrors.CategorySource, "object.get", apperrors.ErrNilSource)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if o.maxBytes > 0 {
		info, err := o.store.Stat(ctx, o.key)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, err
		}
		if info.Size > o.maxBytes {
			return nil, apperrors.New(apperrors.CategoryInput, "object.stat", apperrors.ErrPayloadTooLarge)
		}
	}
	rc, err := o.store.Get(ctx, o.key)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	defer rc.Close()
	return readAll(ctx, "object.read", rc, o.maxBytes)
}
