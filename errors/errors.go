package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// Category classifies faults for targeted handling and monitoring.
type Category string

const (
	CategoryTransport Category = "transport"
	CategoryDecode    Category = "decode"
	CategoryAPI       Category = "api"
	CategoryStatus    Category = "status"
	CategoryInput     Category = "input"
	CategorySource    Category = "source"
	CategoryCanceled  Category = "canceled"
	CategoryCodec     Category = "codec"
	CategoryStorage   Category = "storage"
	CategoryConfig    Category = "config"
)

// Fault is the structured error type used throughout the module.
type Fault struct {
	Category  Category
	Op        string // operation name
	Err       error
	Retryable bool
}

func (e *Fault) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.Op, e.Err)
}

func (e *Fault) Unwrap() error { return e.Err }

// New creates a non-retryable Fault.
func New(category Category, op string, err error) *Fault {
	return &Fault{Category: category, Op: op, Err: err}
}

// Transient creates a retryable transport Fault.
func Transient(op string, err error) *Fault {
	return &Fault{Category: CategoryTransport, Op: op, Err: err, Retryable: true}
}

// Wrap wraps an existing error with context.
func Wrap(category Category, op string, err error) error {
	if err == nil {
		return nil
	}
	return New(category, op, err)
}

// IsRetryable reports whether err represents a failure a caller may retry.
// The library never retries on its own.
func IsRetryable(err error) bool {
	var f *Fault
	if errors.As(err, &f) {
		return f.Retryable
	}
	return false
}

// IsCategory reports whether err belongs to the given category.
func IsCategory(err error, cat Category) bool {
	return CategoryOf(err) == cat
}

// CategoryOf returns the category of the outermost Fault in err's chain, or
// infers one from the bare API and status error types.
func CategoryOf(err error) Category {
	var f *Fault
	if errors.As(err, &f) {
		return f.Category
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return CategoryAPI
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return CategoryStatus
	}
	return ""
}

// Sentinel errors for common failure modes.
var (
	ErrUnsupportedFormat  = errors.New("unsupported image format")
	ErrEmptyInput         = errors.New("empty input")
	ErrEmptyPayload       = errors.New("payload source produced no bytes")
	ErrMissingID          = errors.New("image id is required")
	ErrMissingURL         = errors.New("source url is required")
	ErrNilSource          = errors.New("payload source is nil")
	ErrPayloadTooLarge    = errors.New("payload exceeds configured upload limit")
	ErrClientClosed       = errors.New("client is closed")
	ErrTimeout            = errors.New("request timed out")
	ErrMissingResult      = errors.New("response carried no result")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrObjectNotFound     = errors.New("object not found")
)

// ── Server-reported errors ────────────────────────────────────────────────────

// FallbackMessage is used when the server reports failure without any message.
const FallbackMessage = "Unknown error"

// APIErrorEntry is one coded error from the response envelope.
type APIErrorEntry struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// APIError aggregates every error entry reported by the server for one call.
type APIError struct {
	StatusCode int
	Entries    []APIErrorEntry
}

// NewAPIError copies entries so the aggregate cannot change after construction.
func NewAPIError(status int, entries []APIErrorEntry) *APIError {
	cp := make([]APIErrorEntry, len(entries))
	copy(cp, entries)
	return &APIError{StatusCode: status, Entries: cp}
}

func (e *APIError) Error() string {
	if len(e.Entries) <= 1 {
		return e.PrimaryMessage()
	}
	return fmt.Sprintf("%s (and %d more)", e.PrimaryMessage(), len(e.Entries)-1)
}

// PrimaryMessage returns the first entry's message or FallbackMessage.
func (e *APIError) PrimaryMessage() string {
	if len(e.Entries) == 0 || e.Entries[0].Message == "" {
		return FallbackMessage
	}
	return e.Entries[0].Message
}

// Messages returns every entry's message in server order.
func (e *APIError) Messages() []string {
	out := make([]string, len(e.Entries))
	for i, entry := range e.Entries {
		out[i] = entry.Message
	}
	return out
}

// Codes returns every entry's code in server order.
func (e *APIError) Codes() []int {
	out := make([]int, len(e.Entries))
	for i, entry := range e.Entries {
		out[i] = entry.Code
	}
	return out
}

// HasCode reports whether any entry carries code.
func (e *APIError) HasCode(code int) bool {
	for _, entry := range e.Entries {
		if entry.Code == code {
			return true
		}
	}
	return false
}

// StatusError reports a non-2xx response whose body was not a failure envelope.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// RetryableStatus reports whether a caller could reasonably retry after code.
func RetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// ── Classification ────────────────────────────────────────────────────────────

// Classify converts an error raised while building, sending or decoding a
// request into a Fault. Faults pass through unchanged.
func Classify(op string, err error) *Fault {
	if err == nil {
		return nil
	}
	var f *Fault
	if errors.As(err, &f) {
		return f
	}

	switch {
	case errors.Is(err, context.Canceled):
		return New(CategoryCanceled, op, err)
	case errors.Is(err, context.DeadlineExceeded):
		return &Fault{Category: CategoryTransport, Op: op, Err: fmt.Errorf("%w: %w", ErrTimeout, err), Retryable: true}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Fault{Category: CategoryTransport, Op: op, Err: fmt.Errorf("%w: %w", ErrTimeout, err), Retryable: true}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return New(CategoryDecode, op, err)
	}

	var urlErr *url.Error
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &urlErr) || errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return Transient(op, err)
	}

	return New(CategoryTransport, op, err)
}

// Describe returns the best human-readable message for err: the primary
// server message for API faults, the status line for status faults, and the
// innermost cause otherwise.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.PrimaryMessage()
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Error()
	}
	if errors.Is(err, ErrTimeout) {
		return ErrTimeout.Error()
	}
	if errors.Is(err, context.Canceled) {
		return "request canceled"
	}
	var f *Fault
	if errors.As(err, &f) && f.Err != nil {
		return strings.TrimSpace(f.Err.Error())
	}
	return err.Error()
}
