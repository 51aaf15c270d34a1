package core

import (
	"net/url"
	"path"
	"strings"
	"time"
)

// ── Remote records ────────────────────────────────────────────────────────────

// RemoteImage is an image stored by the remote service.
type RemoteImage struct {
	ID                string            `json:"id" yaml:"id"`
	Name              string            `json:"name" yaml:"name"`
	UploadedAt        string            `json:"uploaded_at" yaml:"uploaded_at"` // ISO-8601
	RequiresSignedURL bool              `json:"requires_signed_url" yaml:"requires_signed_url"`
	VariantURLs       []string          `json:"variant_urls" yaml:"variant_urls"`
	Metadata          map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"` // nil when absent
}

// UploadedTime parses UploadedAt.
func (i RemoteImage) UploadedTime() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, i.UploadedAt)
}

// PublicURL returns the delivery URL of the "public" variant.
func (i RemoteImage) PublicURL() (string, bool) {
	return i.VariantURL("public")
}

// VariantURL returns the first variant URL whose path ends in "/"+name.
func (i RemoteImage) VariantURL(name string) (string, bool) {
	suffix := "/" + name
	for _, v := range i.VariantURLs {
		if strings.HasSuffix(urlPath(v), suffix) {
			return v, true
		}
	}
	return "", false
}

// VariantMap maps each variant URL's last path segment to the full URL.
func (i RemoteImage) VariantMap() map[string]string {
	out := make(map[string]string, len(i.VariantURLs))
	for _, v := range i.VariantURLs {
		p := strings.TrimRight(urlPath(v), "/")
		if p == "" {
			continue
		}
		out[path.Base(p)] = v
	}
	return out
}

func urlPath(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		return u.Path
	}
	return raw
}

// ImageListPage is one page of a listing.
type ImageListPage struct {
	Images     []RemoteImage `json:"images" yaml:"images"`
	Count      int           `json:"count" yaml:"count"`
	Page       int           `json:"page" yaml:"page"`
	PerPage    int           `json:"per_page" yaml:"per_page"`
	TotalCount int           `json:"total_count" yaml:"total_count"`
}

// HasMore reports whether pages after this one exist.
func (p ImageListPage) HasMore() bool {
	return p.Page*p.PerPage < p.TotalCount
}

// NextPage returns the following page number when HasMore.
func (p ImageListPage) NextPage() (int, bool) {
	if !p.HasMore() {
		return 0, false
	}
	return p.Page + 1, true
}

// UsageStats is the account's stored image count against its allowance.
type UsageStats struct {
	Current int64 `json:"current" yaml:"current"`
	Allowed int64 `json:"allowed" yaml:"allowed"`
}

// PercentageUsed returns Current as a percentage of Allowed, or 0 when
// Allowed is not positive.
func (u UsageStats) PercentageUsed() float64 {
	if u.Allowed <= 0 {
		return 0
	}
	return float64(u.Current) / float64(u.Allowed) * 100
}

// Remaining returns how many more images fit, never negative.
func (u UsageStats) Remaining() int64 {
	return max(u.Allowed-u.Current, 0)
}

// ── Operation options ─────────────────────────────────────────────────────────

// ProgressFunc receives the uploaded fraction of the request body.
type ProgressFunc func(fraction float64)

// UploadOptions controls Client.Upload.
type UploadOptions struct {
	ID                string // optional custom id
	RequireSignedURLs bool
	Metadata          map[string]string
	OnProgress        ProgressFunc
}

// URLUploadOptions controls Client.UploadFromURL.
type URLUploadOptions struct {
	ID                string
	RequireSignedURLs bool
	Metadata          map[string]string
}

// UpdateOptions controls Client.Update. Nil fields are left unchanged.
type UpdateOptions struct {
	RequireSignedURLs *bool
	Metadata          map[string]string
}

// OperationInfo describes an operation to hooks.
type OperationInfo struct {
	Op        string
	RequestID string
	ImageID   string
	Bytes     int64 // payload size for uploads; 0 otherwise
}

// ── Local image handling ──────────────────────────────────────────────────────

// Format identifies an image codec.
type Format string

const (
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatGIF     Format = "gif"
	FormatWebP    Format = "webp"
	FormatUnknown Format = "unknown"
)

// MediaType returns the IANA media type for f.
func (f Format) MediaType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case FormatGIF:
		return "image/gif"
	case FormatWebP:
		return "image/webp"
	}
	return "application/octet-stream"
}

// Extension returns the conventional file extension for f, without a dot.
func (f Format) Extension() string {
	switch f {
	case FormatJPEG:
		return "jpg"
	case FormatUnknown, "":
		return "bin"
	}
	return string(f)
}

// FormatFromMediaType maps a media type to a Format.
func FormatFromMediaType(mt string) Format {
	switch strings.ToLower(strings.TrimSpace(mt)) {
	case "image/jpeg", "image/jpg":
		return FormatJPEG
	case "image/png":
		return FormatPNG
	case "image/gif":
		return FormatGIF
	case "image/webp":
		return FormatWebP
	}
	return FormatUnknown
}

// ColorSpace represents the image colour model.
type ColorSpace string

const (
	ColorSpaceRGB  ColorSpace = "rgb"
	ColorSpaceRGBA ColorSpace = "rgba"
	ColorSpaceCMYK ColorSpace = "cmyk"
	ColorSpaceGray ColorSpace = "gray"
)

// Metadata holds locally extracted image information.
type Metadata struct {
	Width      int
	Height     int
	Format     Format
	ColorSpace ColorSpace
	HasAlpha   bool
	SizeBytes  int64
}

// ImageData is a decoded image held in memory.
type ImageData struct {
	// Encoded bytes, when known.
	Data   []byte
	Format Format

	// Decoded pixel buffer: image.Image, or a backend specific type such as
	// the libvips wrapper.
	Image interface{}

	Meta Metadata
}

// StorageKey uniquely identifies a stored object.
type StorageKey struct {
	Bucket string
	Path   string
}

// ObjectInfo describes a stored object without reading it.
type ObjectInfo struct {
	Size        int64 // -1 if unknown
	ContentType string
}
