// Package storage provides core.ObjectStore implementations that payload
// sources read upload bytes from.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/Skryldev/image-client/core"
	apperrors "github.com/Skryldev/image-client/errors"
)

// Local reads objects from the local filesystem. Bucket maps to a
// subdirectory of the root and Path to the file below it.
type Local struct {
	rootDir string
}

// NewLocal creates a Local store rooted at dir, which must exist.
func NewLocal(dir string) (*Local, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("local storage: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("local storage: %s is not a directory", dir)
	}
	return &Local{rootDir: dir}, nil
}

// absPath resolves key inside the root; keys escaping it are rejected.
func (l *Local) absPath(key core.StorageKey) (string, error) {
	rel := filepath.Join(filepath.Clean("/"+key.Bucket), filepath.Clean("/"+key.Path))
	if strings.Trim(rel, "/") == "" {
		return "", apperrors.New(apperrors.CategoryInput, "local.path", apperrors.ErrEmptyInput)
	}
	return filepath.Join(l.rootDir, rel), nil
}

func (l *Local) Get(ctx context.Context, key core.StorageKey) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryStorage, "local.get", err)
	}
	path, err := l.absPath(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, localError("local.get", key, err)
	}
	return f, nil
}

func (l *Local) Stat(ctx context.Context, key core.StorageKey) (core.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return core.ObjectInfo{Size: -1}, apperrors.Wrap(apperrors.CategoryStorage, "local.stat", err)
	}
	path, err := l.absPath(key)
	if err != nil {
		return core.ObjectInfo{Size: -1}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return core.ObjectInfo{Size: -1}, localError("local.stat", key, err)
	}
	return core.ObjectInfo{
		Size:        info.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
	}, nil
}

func localError(op string, key core.StorageKey, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return apperrors.New(apperrors.CategoryStorage, op,
			fmt.Errorf("%w: %s/%s", apperrors.ErrObjectNotFound, key.Bucket, key.Path))
	}
	return apperrors.Wrap(apperrors.CategoryStorage, op, err)
}
