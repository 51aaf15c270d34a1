package core

import (
	"bytes"
	"context"
	"sort"
	"sync"

	apperrors "github.com/Skryldev/image-client/errors"
	"github.com/Skryldev/image-client/utils"
)

// ── Registry ──────────────────────────────────────────────────────────────────

// DefaultRegistry is a thread-safe implementation of Registry.
type DefaultRegistry struct {
	mu       sync.RWMutex
	decoders map[Format]Decoder
	encoders map[Format]Encoder
}

// NewRegistry returns an empty DefaultRegistry.
func NewRegistry() *DefaultRegistry {
	return &DefaultRegistry{
		decoders: make(map[Format]Decoder),
		encoders: make(map[Format]Encoder),
	}
}

func (r *DefaultRegistry) RegisterDecoder(f Format, d Decoder) {
	r.mu.Lock()
	r.decoders[f] = d
	r.mu.Unlock()
}

func (r *DefaultRegistry) RegisterEncoder(f Format, e Encoder) {
	r.mu.Lock()
	r.encoders[f] = e
	r.mu.Unlock()
}

func (r *DefaultRegistry) DecoderFor(f Format) (Decoder, bool) {
	r.mu.RLock()
	d, ok := r.decoders[f]
	r.mu.RUnlock()
	return d, ok
}

func (r *DefaultRegistry) EncoderFor(f Format) (Encoder, bool) {
	r.mu.RLock()
	e, ok := r.encoders[f]
	r.mu.RUnlock()
	return e, ok
}

// EncodableFormats lists the formats with a registered encoder, sorted.
func (r *DefaultRegistry) EncodableFormats() []Format {
	r.mu.RLock()
	out := make([]Format, 0, len(r.encoders))
	for f := range r.encoders {
		out = append(out, f)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Inspect sniffs data's format and decodes it with the matching decoder to
// read its dimensions locally, before anything is sent.
func Inspect(ctx context.Context, reg Registry, data []byte) (Metadata, error) {
	if len(data) == 0 {
		return Metadata{}, apperrors.New(apperrors.CategoryInput, "inspect", apperrors.ErrEmptyInput)
	}
	format := Format(utils.DetectFormat(data))
	dec, ok := reg.DecoderFor(format)
	if !ok {
		return Metadata{Format: format, SizeBytes: int64(len(data))},
			apperrors.New(apperrors.CategoryCodec, "inspect", apperrors.ErrUnsupportedFormat)
	}
	img, err := dec.Decode(ctx, bytes.NewReader(data))
	if err != nil {
		return Metadata{Format: format, SizeBytes: int64(len(data))}, err
	}
	meta := img.Meta
	meta.Format = format
	meta.SizeBytes = int64(len(data))
	return meta, nil
}
