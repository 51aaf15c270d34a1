// Package transport is the HTTP request engine: it sends requests, decodes
// JSON, and reports every outcome as a result.Result. It never retries and
// never interprets API-level success flags.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	apperrors "github.com/Skryldev/image-client/errors"
	"github.com/Skryldev/image-client/result"
)

// Options configures an Engine.
type Options struct {
	BaseURL          string
	Timeout          time.Duration
	Logging          bool
	Logger           Logger
	Headers          map[string]string
	BearerToken      string
	UserAgent        string
	MaxResponseBytes int

	// Transport overrides the pooled HTTP transport (tests, proxies).
	Transport http.RoundTripper
}

// Request describes one call.
type Request struct {
	Method string
	Path   string // joined onto BaseURL unless absolute
	Query  map[string]string
	Header map[string]string

	// Body is sent as-is for []byte, string and io.Reader; any other value is
	// JSON encoded.
	Body        any
	ContentType string
}

// Response is the raw outcome of a request that reached the server.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool { return r.StatusCode >= 200 && r.StatusCode <= 299 }

// Text returns the body as a string.
func (r *Response) Text() string { return string(r.Body) }

// Engine is safe for concurrent use; the pooled connections are its only
// shared state.
type Engine struct {
	client *resty.Client
	closed atomic.Bool
}

// New builds an Engine with a pooled transport honouring opts.Timeout on
// every phase.
func New(opts Options) *Engine {
	rt := opts.Transport
	if rt == nil {
		rt = newPooledTransport(opts.Timeout)
	}
	hc := &http.Client{
		Transport: &progressTransport{base: rt},
		Timeout:   opts.Timeout,
	}

	client := resty.NewWithClient(hc).
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetDisableWarn(!opts.Logging)

	if opts.BearerToken != "" {
		client.SetAuthToken(opts.BearerToken)
	}
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	for k, v := range opts.Headers {
		client.SetHeader(k, v)
	}
	if opts.MaxResponseBytes > 0 {
		client.SetResponseBodyLimit(opts.MaxResponseBytes)
	}
	if opts.Logger != nil {
		client.SetLogger(&restyLogger{log: opts.Logger})
	}
	if opts.Logging {
		client.SetDebug(true).
			SetDebugBodyLimit(4096).
			OnRequestLog(maskCredentials)
	}

	return &Engine{client: client}
}

func newPooledTransport(timeout time.Duration) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if timeout > 0 {
		t.DialContext = (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext
		t.TLSHandshakeTimeout = timeout
		t.ResponseHeaderTimeout = timeout
		t.ExpectContinueTimeout = time.Second
	}
	t.MaxIdleConnsPerHost = 16
	return t
}

// Close releases pooled connections. Later calls fail with ErrClientClosed.
func (e *Engine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.client.GetClient().CloseIdleConnections()
	return nil
}

// Closed reports whether Close has been called.
func (e *Engine) Closed() bool { return e.closed.Load() }

// Execute sends req and returns the raw response. Only faults that prevent a
// response from arriving become errors; HTTP status is left to the caller.
func (e *Engine) Execute(ctx context.Context, req Request) (res result.Result[*Response]) {
	op := strings.ToLower(req.Method) + " " + req.Path
	if e.closed.Load() {
		return result.FromError[*Response](apperrors.New(apperrors.CategoryInput, op, apperrors.ErrClientClosed))
	}
	defer func() {
		if p := recover(); p != nil {
			res = result.FromError[*Response](apperrors.New(apperrors.CategoryTransport, op, fmt.Errorf("panic: %v", p)))
		}
	}()

	r := e.client.R().SetContext(ctx)
	if len(req.Query) > 0 {
		r.SetQueryParams(req.Query)
	}
	if len(req.Header) > 0 {
		r.SetHeaders(req.Header)
	}
	if req.Body != nil {
		if req.ContentType != "" {
			r.SetHeader("Content-Type", req.ContentType)
		} else if isStructured(req.Body) {
			r.SetHeader("Content-Type", "application/json")
		}
		r.SetBody(req.Body)
	}

	start := time.Now()
	resp, err := r.Execute(req.Method, req.Path)
	if err != nil {
		return result.FromError[*Response](apperrors.Classify(op, err))
	}
	return result.Success(&Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
		Duration:   time.Since(start),
	})
}

// Get issues a GET request.
func (e *Engine) Get(ctx context.Context, path string, query map[string]string) result.Result[*Response] {
	return e.Execute(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post issues a POST request.
func (e *Engine) Post(ctx context.Context, path string, body any, contentType string) result.Result[*Response] {
	return e.Execute(ctx, Request{Method: http.MethodPost, Path: path, Body: body, ContentType: contentType})
}

// Put issues a PUT request with a JSON body.
func (e *Engine) Put(ctx context.Context, path string, body any) result.Result[*Response] {
	return e.Execute(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch issues a PATCH request with a JSON body.
func (e *Engine) Patch(ctx context.Context, path string, body any) result.Result[*Response] {
	return e.Execute(ctx, Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete issues a DELETE request.
func (e *Engine) Delete(ctx context.Context, path string) result.Result[*Response] {
	return e.Execute(ctx, Request{Method: http.MethodDelete, Path: path})
}

// Decode unmarshals resp's body into T.
func Decode[T any](resp *Response) result.Result[T] {
	var out T
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return result.FromError[T](apperrors.New(apperrors.CategoryDecode, "decode", err))
	}
	return result.Success(out)
}

// Send executes req and decodes the JSON body into T regardless of status.
func Send[T any](ctx context.Context, e *Engine, req Request) result.Result[T] {
	return result.FlatMap(e.Execute(ctx, req), Decode[T])
}

// SendText executes req and returns the body as text.
func SendText(ctx context.Context, e *Engine, req Request) result.Result[string] {
	return result.Map(e.Execute(ctx, req), (*Response).Text)
}

func isStructured(body any) bool {
	switch body.(type) {
	case []byte, string:
		return false
	case interface{ Read([]byte) (int, error) }:
		return false
	}
	return true
}
