package core

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skryldev/image-client/config"
	apperrors "github.com/Skryldev/image-client/errors"
	"github.com/Skryldev/image-client/result"
	"github.com/Skryldev/image-client/transport"
)

// Operation names reported to hooks, metrics and logs.
const (
	OpUpload        = "upload"
	OpUploadFromURL = "upload_from_url"
	OpGet           = "get"
	OpList          = "list"
	OpUpdate        = "update"
	OpDelete        = "delete"
	OpUsage         = "usage"
)

const maxPerPage = 100

// Option customises a Client at construction.
type Option func(*clientOptions)

type clientOptions struct {
	transport http.RoundTripper
	headers   map[string]string
}

// WithTransport replaces the pooled HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) { o.transport = rt }
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(o *clientOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

// Client talks to the remote images API. It is safe for concurrent use once
// configured; attach loggers, metrics and hooks before issuing operations.
type Client struct {
	cfg     config.Config
	engine  *transport.Engine
	logger  Logger
	metrics MetricsCollector
	hooks   []Hook
}

// NewClient validates cfg and builds a Client owning one connection pool.
// Release it with Close.
func NewClient(cfg config.Config, opts ...Option) (*Client, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, apperrors.New(apperrors.CategoryConfig, "new_client", err)
	}
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{cfg: cfg}
	c.engine = transport.New(transport.Options{
		BaseURL:          cfg.ImagesURL(),
		Timeout:          cfg.Timeout,
		Logging:          cfg.Logging,
		Logger:           forwardLogger{c},
		Headers:          o.headers,
		BearerToken:      cfg.APIToken,
		UserAgent:        cfg.UserAgent,
		MaxResponseBytes: cfg.MaxResponseBytes,
		Transport:        o.transport,
	})
	return c, nil
}

// SetLogger attaches a structured logger.
func (c *Client) SetLogger(l Logger) { c.logger = l }

// SetMetrics attaches a metrics collector.
func (c *Client) SetMetrics(m MetricsCollector) { c.metrics = m }

// AddHook registers an operation observer.
func (c *Client) AddHook(h Hook) { c.hooks = append(c.hooks, h) }

// Config returns the client's configuration.
func (c *Client) Config() config.Config { return c.cfg }

// Close releases the connection pool. Operations issued afterwards fail with
// errors.ErrClientClosed. Close is idempotent.
func (c *Client) Close() error { return c.engine.Close() }

// ── Operations ────────────────────────────────────────────────────────────────

// Upload sends src as a multipart form.
func (c *Client) Upload(ctx context.Context, src PayloadSource, opts UploadOptions) result.Result[RemoteImage] {
	info := OperationInfo{Op: OpUpload, ImageID: opts.ID}
	size := int64(-1)
	if src != nil {
		if n, ok := src.Size(); ok {
			info.Bytes, size = n, n
		}
	}
	return track(ctx, c, info, func(ctx context.Context) result.Result[RemoteImage] {
		data, err := c.fetch(ctx, src, size)
		if err != nil {
			return result.FromError[RemoteImage](err)
		}

		f := newForm()
		f.file("file", src.Name(), src.MediaType(), data)
		f.uploadFields(opts.ID, opts.RequireSignedURLs, opts.Metadata)
		body, contentType, err := f.close()
		if err != nil {
			return result.FromError[RemoteImage](apperrors.New(apperrors.CategoryTransport, OpUpload, err))
		}

		if c.metrics != nil {
			c.metrics.RecordUploadBytes(int64(len(data)))
		}
		if opts.OnProgress != nil {
			ctx = transport.WithProgress(ctx, transport.ProgressFunc(opts.OnProgress))
		}
		return c.image(ctx, OpUpload, transport.Request{
			Method:      http.MethodPost,
			Body:        body,
			ContentType: contentType,
		})
	})
}

// UploadFromURL asks the service to fetch the image at rawURL itself.
func (c *Client) UploadFromURL(ctx context.Context, rawURL string, opts URLUploadOptions) result.Result[RemoteImage] {
	return track(ctx, c, OperationInfo{Op: OpUploadFromURL, ImageID: opts.ID}, func(ctx context.Context) result.Result[RemoteImage] {
		if strings.TrimSpace(rawURL) == "" {
			return result.FromError[RemoteImage](apperrors.New(apperrors.CategoryInput, OpUploadFromURL, apperrors.ErrMissingURL))
		}

		f := newForm()
		f.field("url", rawURL)
		f.uploadFields(opts.ID, opts.RequireSignedURLs, opts.Metadata)
		body, contentType, err := f.close()
		if err != nil {
			return result.FromError[RemoteImage](apperrors.New(apperrors.CategoryTransport, OpUploadFromURL, err))
		}
		return c.image(ctx, OpUploadFromURL, transport.Request{
			Method:      http.MethodPost,
			Body:        body,
			ContentType: contentType,
		})
	})
}

// Get fetches one image's details.
func (c *Client) Get(ctx context.Context, id string) result.Result[RemoteImage] {
	return track(ctx, c, OperationInfo{Op: OpGet, ImageID: id}, func(ctx context.Context) result.Result[RemoteImage] {
		path, err := imagePath(OpGet, id)
		if err != nil {
			return result.FromError[RemoteImage](err)
		}
		return c.image(ctx, OpGet, transport.Request{Method: http.MethodGet, Path: path})
	})
}

// Delete removes an image.
func (c *Client) Delete(ctx context.Context, id string) result.Result[struct{}] {
	return track(ctx, c, OperationInfo{Op: OpDelete, ImageID: id}, func(ctx context.Context) result.Result[struct{}] {
		path, err := imagePath(OpDelete, id)
		if err != nil {
			return result.FromError[struct{}](err)
		}
		return result.FlatMap(c.engine.Delete(ctx, path), func(resp *transport.Response) result.Result[struct{}] {
			return result.Map(interpret[struct{}](OpDelete, resp), func(payload[struct{}]) struct{} { return struct{}{} })
		})
	})
}

// List fetches one page of images. perPage is clamped to [1,100] and page
// to at least 1 before the request is sent.
func (c *Client) List(ctx context.Context, page, perPage int) result.Result[ImageListPage] {
	page, perPage = ClampPage(page, perPage)
	return track(ctx, c, OperationInfo{Op: OpList}, func(ctx context.Context) result.Result[ImageListPage] {
		query := map[string]string{
			"page":     strconv.Itoa(page),
			"per_page": strconv.Itoa(perPage),
		}
		return result.FlatMap(c.engine.Get(ctx, "", query), func(resp *transport.Response) result.Result[ImageListPage] {
			return result.Map(interpret[wireList](OpList, resp), func(p payload[wireList]) ImageListPage {
				return listPage(p, page, perPage)
			})
		})
	})
}

// ListDefault lists the first page using Config.DefaultPerPage.
func (c *Client) ListDefault(ctx context.Context) result.Result[ImageListPage] {
	perPage := c.cfg.DefaultPerPage
	if perPage == 0 {
		perPage = 20
	}
	return c.List(ctx, 1, perPage)
}

// ClampPage normalises listing arguments.
func ClampPage(page, perPage int) (int, int) {
	return max(page, 1), min(max(perPage, 1), maxPerPage)
}

// Update changes an image's signed-URL requirement and/or metadata. Only
// supplied fields are sent; a non-nil empty Metadata clears it.
func (c *Client) Update(ctx context.Context, id string, opts UpdateOptions) result.Result[RemoteImage] {
	return track(ctx, c, OperationInfo{Op: OpUpdate, ImageID: id}, func(ctx context.Context) result.Result[RemoteImage] {
		path, err := imagePath(OpUpdate, id)
		if err != nil {
			return result.FromError[RemoteImage](err)
		}
		body := make(map[string]any, 2)
		if opts.RequireSignedURLs != nil {
			body["requireSignedURLs"] = *opts.RequireSignedURLs
		}
		if opts.Metadata != nil {
			body["metadata"] = opts.Metadata
		}
		return c.image(ctx, OpUpdate, transport.Request{Method: http.MethodPatch, Path: path, Body: body})
	})
}

// Usage reports the account's stored image count against its allowance.
func (c *Client) Usage(ctx context.Context) result.Result[UsageStats] {
	return track(ctx, c, OperationInfo{Op: OpUsage}, func(ctx context.Context) result.Result[UsageStats] {
		return result.FlatMap(c.engine.Get(ctx, "/stats", nil), func(resp *transport.Response) result.Result[UsageStats] {
			return result.Map(interpret[wireStats](OpUsage, resp), func(p payload[wireStats]) UsageStats {
				return UsageStats{Current: p.Result.Count.Current, Allowed: p.Result.Count.Allowed}
			})
		})
	})
}

// ── internals ─────────────────────────────────────────────────────────────────

func (c *Client) image(ctx context.Context, op string, req transport.Request) result.Result[RemoteImage] {
	return result.FlatMap(c.engine.Execute(ctx, req), func(resp *transport.Response) result.Result[RemoteImage] {
		return result.FlatMap(interpret[wireImage](op, resp), func(p payload[wireImage]) result.Result[RemoteImage] {
			if !p.Present {
				return result.FromError[RemoteImage](apperrors.New(apperrors.CategoryDecode, op, apperrors.ErrMissingResult))
			}
			return result.Success(p.Result.remote())
		})
	})
}

// fetch reads src's bytes once, enforcing MaxUploadBytes against the declared
// size (negative when unknown) and again after reading.
func (c *Client) fetch(ctx context.Context, src PayloadSource, size int64) ([]byte, error) {
	if src == nil {
		return nil, apperrors.New(apperrors.CategoryInput, OpUpload, apperrors.ErrNilSource)
	}
	limit := c.cfg.MaxUploadBytes
	if limit > 0 && size > limit {
		return nil, apperrors.New(apperrors.CategoryInput, OpUpload, apperrors.ErrPayloadTooLarge)
	}
	if c.engine.Closed() {
		return nil, apperrors.New(apperrors.CategoryInput, OpUpload, apperrors.ErrClientClosed)
	}

	data, err := src.Bytes(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, apperrors.Classify(OpUpload, ctxErr)
		}
		var f *apperrors.Fault
		if errors.As(err, &f) {
			return nil, f
		}
		return nil, apperrors.New(apperrors.CategorySource, OpUpload, err)
	}
	if len(data) == 0 {
		return nil, apperrors.New(apperrors.CategoryInput, OpUpload, apperrors.ErrEmptyPayload)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, apperrors.New(apperrors.CategoryInput, OpUpload, apperrors.ErrPayloadTooLarge)
	}
	return data, nil
}

func imagePath(op, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", apperrors.New(apperrors.CategoryInput, op, apperrors.ErrMissingID)
	}
	return "/" + url.PathEscape(id), nil
}

// track runs one operation between hook notifications and records metrics.
func track[T any](ctx context.Context, c *Client, info OperationInfo, fn func(context.Context) result.Result[T]) result.Result[T] {
	info.RequestID = uuid.NewString()
	for _, h := range c.hooks {
		h.BeforeOperation(ctx, info)
	}

	start := time.Now()
	res := fn(ctx)
	elapsed := time.Since(start)

	err := res.Err()
	if c.metrics != nil {
		c.metrics.RecordOperationTime(info.Op, elapsed)
		if err != nil {
			c.metrics.RecordError(info.Op, string(apperrors.CategoryOf(err)))
		}
	}
	for _, h := range c.hooks {
		h.AfterOperation(ctx, info, elapsed, err)
	}
	return res
}

// forwardLogger hands engine log lines to whatever logger the client holds
// at the time they are written.
type forwardLogger struct{ c *Client }

func (f forwardLogger) Debug(msg string, fields ...interface{}) {
	if l := f.c.logger; l != nil {
		l.Debug(msg, fields...)
	}
}

func (f forwardLogger) Info(msg string, fields ...interface{}) {
	if l := f.c.logger; l != nil {
		l.Info(msg, fields...)
	}
}

func (f forwardLogger) Warn(msg string, fields ...interface{}) {
	if l := f.c.logger; l != nil {
		l.Warn(msg, fields...)
	}
}

func (f forwardLogger) Error(msg string, fields ...interface{}) {
	if l := f.c.logger; l != nil {
		l.Error(msg, fields...)
	}
}
