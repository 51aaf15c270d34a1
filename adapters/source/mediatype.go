// Package source provides core.PayloadSource implementations: in-memory
// buffers, files, readers and openers, decoded images and object stores.
// Every source reports its media type and name up front and reads bytes only
// when an upload asks for them.
package source

import (
	"path"
	"strings"
)

const (
	// DefaultMediaType and DefaultName apply to FromBytes when the caller
	// leaves them empty.
	DefaultMediaType = "image/jpeg"
	DefaultName      = "image.jpg"

	octetStream = "application/octet-stream"
)

// MediaTypeFor infers a media type from name's extension.
func MediaTypeFor(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(strings.ReplaceAll(name, "\\", "/")), "."))
	switch ext {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	}
	return octetStream
}
