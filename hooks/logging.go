package hooks

import (
	"context"
	"time"

	units "github.com/docker/go-units"

	"github.com/Skryldev/image-client/core"
	apperrors "github.com/Skryldev/image-client/errors"
)

// ── Logging hook ──────────────────────────────────────────────────────────────

// LoggingHook logs the start and outcome of every client operation.
type LoggingHook struct {
	logger core.Logger
}

// NewLoggingHook creates a LoggingHook.
func NewLoggingHook(l core.Logger) *LoggingHook { return &LoggingHook{logger: l} }

func (h *LoggingHook) BeforeOperation(_ context.Context, op core.OperationInfo) {
	fields := []interface{}{"op", op.Op, "request_id", op.RequestID}
	if op.ImageID != "" {
		fields = append(fields, "image_id", op.ImageID)
	}
	if op.Bytes > 0 {
		fields = append(fields, "size", units.HumanSize(float64(op.Bytes)))
	}
	h.logger.Debug("image.op.start", fields...)
}

func (h *LoggingHook) AfterOperation(_ context.Context, op core.OperationInfo, d time.Duration, err error) {
	if err != nil {
		h.logger.Error("image.op.error",
			"op", op.Op,
			"request_id", op.RequestID,
			"duration_ms", d.Milliseconds(),
			"category", string(apperrors.CategoryOf(err)),
			"retryable", apperrors.IsRetryable(err),
			"error", err.Error(),
		)
		return
	}
	h.logger.Info("image.op.done",
		"op", op.Op,
		"request_id", op.RequestID,
		"duration_ms", d.Milliseconds(),
	)
}
