package transport

import (
	"context"
	"io"
	"net/http"
	"sync"
)

// ProgressFunc receives the fraction of the request body written so far.
type ProgressFunc func(fraction float64)

type progressKey struct{}

// WithProgress attaches fn to ctx; requests sent with the returned context
// report body upload progress to fn.
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	if fn == nil {
		return ctx
	}
	return context.WithValue(ctx, progressKey{}, fn)
}

func progressFrom(ctx context.Context) ProgressFunc {
	fn, _ := ctx.Value(progressKey{}).(ProgressFunc)
	return fn
}

// progressTransport counts request body bytes as the underlying transport
// reads them off the body.
type progressTransport struct {
	base http.RoundTripper
}

func (t *progressTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	fn := progressFrom(req.Context())
	if fn == nil || req.Body == nil || req.Body == http.NoBody || req.ContentLength <= 0 {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Body = &progressReader{rc: req.Body, total: req.ContentLength, fn: fn}
	return t.base.RoundTrip(clone)
}

type progressReader struct {
	rc    io.ReadCloser
	total int64

	mu   sync.Mutex
	sent int64
	last float64
	fn   ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.rc.Read(b)
	if n > 0 {
		p.mu.Lock()
		p.sent += int64(n)
		fraction := float64(p.sent) / float64(p.total)
		if fraction > 1 {
			fraction = 1
		}
		report := fraction > p.last
		if report {
			p.last = fraction
		}
		p.mu.Unlock()
		if report {
			p.fn(fraction)
		}
	}
	return n, err
}

func (p *progressReader) Close() error { return p.rc.Close() }
