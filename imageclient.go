// Package imageclient is a typed client for a remote image-management HTTP
// API: upload, upload from URL, get, list, update, delete and usage stats.
// Every operation returns a result.Result instead of raising.
package imageclient

import (
	"context"
	"image"

	"github.com/google/uuid"

	"github.com/Skryldev/image-client/adapters/decoder"
	"github.com/Skryldev/image-client/adapters/encoder"
	"github.com/Skryldev/image-client/adapters/source"
	"github.com/Skryldev/image-client/config"
	"github.com/Skryldev/image-client/core"
	apperrors "github.com/Skryldev/image-client/errors"
	"github.com/Skryldev/image-client/result"
)

// Re-exported types for convenience.
type (
	RemoteImage      = core.RemoteImage
	ImageListPage    = core.ImageListPage
	UsageStats       = core.UsageStats
	UploadOptions    = core.UploadOptions
	URLUploadOptions = core.URLUploadOptions
	UpdateOptions    = core.UpdateOptions
	BatchItem        = core.BatchItem
	PayloadSource    = core.PayloadSource
)

// Re-export Format constants for convenience.
const (
	JPEG = core.FormatJPEG
	PNG  = core.FormatPNG
	GIF  = core.FormatGIF
	WebP = core.FormatWebP
)

// DefaultConfig returns a sensible production configuration. AccountID and
// APIToken still have to be filled in.
func DefaultConfig() config.Config { return config.Default() }

// Client is the primary entry point.
type Client struct {
	inner *core.Client
	reg   *core.DefaultRegistry
}

// New creates a fully wired Client with JPEG, PNG, GIF and WebP decoders and
// JPEG, PNG and GIF encoders registered. Release it with Close.
func New(cfg config.Config, opts ...core.Option) (*Client, error) {
	inner, err := core.NewClient(cfg, opts...)
	if err != nil {
		return nil, err
	}
	reg := core.NewRegistry()
	decoder.RegisterDefaults(reg)
	encoder.RegisterDefaults(reg, 0)
	return &Client{inner: inner, reg: reg}, nil
}

// With creates a Client, passes it to fn and closes it on every exit path.
func With(cfg config.Config, fn func(*Client) error, opts ...core.Option) error {
	c, err := New(cfg, opts...)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

// Close releases pooled connections; later operations fail.
func (c *Client) Close() error { return c.inner.Close() }

// SetLogger attaches a structured logger.
func (c *Client) SetLogger(l core.Logger) { c.inner.SetLogger(l) }

// SetMetrics attaches a metrics collector.
func (c *Client) SetMetrics(m core.MetricsCollector) { c.inner.SetMetrics(m) }

// AddHook registers an observer for operation events.
func (c *Client) AddHook(h core.Hook) { c.inner.AddHook(h) }

// RegisterDecoder registers a custom decoder for the given format.
func (c *Client) RegisterDecoder(f core.Format, d core.Decoder) { c.reg.RegisterDecoder(f, d) }

// RegisterEncoder registers a custom encoder for the given format.
func (c *Client) RegisterEncoder(f core.Format, e core.Encoder) { c.reg.RegisterEncoder(f, e) }

// Registry returns the codec registry, e.g. for vips.RegisterVipsBackend.
func (c *Client) Registry() core.Registry { return c.reg }

// ── Operations ────────────────────────────────────────────────────────────────

// Upload sends src as a new image.
func (c *Client) Upload(ctx context.Context, src PayloadSource, opts UploadOptions) result.Result[RemoteImage] {
	return c.inner.Upload(ctx, src, opts)
}

// UploadAsync starts Upload on its own goroutine.
func (c *Client) UploadAsync(ctx context.Context, src PayloadSource, opts UploadOptions) *result.Future[RemoteImage] {
	return result.Go(ctx, func(ctx context.Context) result.Result[RemoteImage] {
		return c.inner.Upload(ctx, src, opts)
	})
}

// UploadBatch uploads items with at most concurrency in flight.
func (c *Client) UploadBatch(ctx context.Context, items []BatchItem, concurrency int) []result.Result[RemoteImage] {
	return c.inner.UploadBatch(ctx, items, concurrency)
}

// UploadFromURL has the service fetch rawURL.
func (c *Client) UploadFromURL(ctx context.Context, rawURL string, opts URLUploadOptions) result.Result[RemoteImage] {
	return c.inner.UploadFromURL(ctx, rawURL, opts)
}

// Get fetches one image.
func (c *Client) Get(ctx context.Context, id string) result.Result[RemoteImage] {
	return c.inner.Get(ctx, id)
}

// List fetches one page of images.
func (c *Client) List(ctx context.Context, page, perPage int) result.Result[ImageListPage] {
	return c.inner.List(ctx, page, perPage)
}

// ListAsync starts List on its own goroutine.
func (c *Client) ListAsync(ctx context.Context, page, perPage int) *result.Future[ImageListPage] {
	return result.Go(ctx, func(ctx context.Context) result.Result[ImageListPage] {
		return c.inner.List(ctx, page, perPage)
	})
}

// Update changes signed-URL requirement and/or metadata.
func (c *Client) Update(ctx context.Context, id string, opts UpdateOptions) result.Result[RemoteImage] {
	return c.inner.Update(ctx, id, opts)
}

// Delete removes an image.
func (c *Client) Delete(ctx context.Context, id string) result.Result[struct{}] {
	return c.inner.Delete(ctx, id)
}

// Usage returns the account's image quota.
func (c *Client) Usage(ctx context.Context) result.Result[UsageStats] {
	return c.inner.Usage(ctx)
}

// Inspect reads src and decodes it locally to report its dimensions and
// format. Nothing is sent to the service.
func (c *Client) Inspect(ctx context.Context, src PayloadSource) result.Result[core.Metadata] {
	if src == nil {
		return result.FromError[core.Metadata](apperrors.New(apperrors.CategoryInput, "inspect", apperrors.ErrNilSource))
	}
	data, err := src.Bytes(ctx)
	if err != nil {
		if ctx.Err() == nil && apperrors.CategoryOf(err) == "" {
			err = apperrors.New(apperrors.CategorySource, "inspect", err)
		}
		return result.FromError[core.Metadata](apperrors.Classify("inspect", err))
	}
	meta, err := core.Inspect(ctx, c.reg, data)
	if err != nil {
		return result.FromError[core.Metadata](err)
	}
	return result.Success(meta)
}

// ── Source constructors ────────────────────────────────────────────────────────

// FromBytes wraps an in-memory buffer; empty mediaType and name default to
// "image/jpeg" and "image.jpg".
func FromBytes(data []byte, mediaType, name string) PayloadSource {
	return source.FromBytes(data, mediaType, name)
}

// FromFile reads the file at path when the upload needs it.
func FromFile(path string) PayloadSource { return source.FromFile(path) }

// FromOpener opens the payload lazily through open.
func FromOpener(open source.OpenFunc, mediaType, name string, size int64) PayloadSource {
	return source.FromOpener(open, mediaType, name, size)
}

// FromImage encodes img as format with the client's registered encoder.
func (c *Client) FromImage(img image.Image, format core.Format, name string, opts core.EncodeOptions) PayloadSource {
	enc, _ := c.reg.EncoderFor(format)
	return source.FromImage(img, enc, format, name, opts)
}

// NewID returns a random identifier suitable as a custom image id.
func NewID() string { return uuid.NewString() }
