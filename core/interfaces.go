package core

import (
	"context"
	"io"
	"time"
)

// PayloadSource produces the bytes of an image to upload. MediaType and Name
// are known up front; Bytes is called lazily, at most once per upload attempt.
// Implementations live in adapters/source/ and adapters/vips/.
type PayloadSource interface {
	MediaType() string
	Name() string
	// Size returns the byte length when it is known without reading.
	Size() (int64, bool)
	Bytes(ctx context.Context) ([]byte, error)
}

// Decoder converts raw bytes into an in-memory ImageData.
// Implementations live in adapters/decoder/.
type Decoder interface {
	Decode(ctx context.Context, r io.Reader) (*ImageData, error)
	CanDecode(format Format) bool
}

// Encoder serialises an ImageData to bytes in a target format.
// Implementations live in adapters/encoder/.
type Encoder interface {
	Encode(ctx context.Context, img *ImageData, opts EncodeOptions) ([]byte, error)
	CanEncode(format Format) bool
}

// EncodeOptions carries format-specific encoding parameters.
type EncodeOptions struct {
	Quality   int  // 1-100; 0 = use encoder default
	Lossless  bool // WebP / PNG lossless mode
	StripEXIF bool
}

// ObjectStore reads payloads kept in an object store.
// Implementations live in adapters/storage/.
type ObjectStore interface {
	Get(ctx context.Context, key StorageKey) (io.ReadCloser, error)
	Stat(ctx context.Context, key StorageKey) (ObjectInfo, error)
}

// MetricsCollector receives observations about client operations.
type MetricsCollector interface {
	RecordOperationTime(op string, d time.Duration)
	RecordUploadBytes(bytes int64)
	RecordError(op string, category string)
}

// Logger is a minimal structured logging interface.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Hook is an optional observer invoked around every client operation.
type Hook interface {
	BeforeOperation(ctx context.Context, op OperationInfo)
	AfterOperation(ctx context.Context, op OperationInfo, d time.Duration, err error)
}

// Registry maps Format values to Decoder/Encoder implementations.
type Registry interface {
	DecoderFor(format Format) (Decoder, bool)
	EncoderFor(format Format) (Encoder, bool)
	RegisterDecoder(format Format, d Decoder)
	RegisterEncoder(format Format, e Encoder)
}
