package transport

import (
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

// Logger is the structured logger the engine writes to. It matches
// core.Logger so either can be passed.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// restyLogger adapts Logger to resty's printf-style logger.
type restyLogger struct {
	log Logger
}

func (l *restyLogger) Errorf(format string, v ...interface{}) {
	l.log.Error("http.error", "detail", strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *restyLogger) Warnf(format string, v ...interface{}) {
	l.log.Warn("http.warn", "detail", strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *restyLogger) Debugf(format string, v ...interface{}) {
	l.log.Debug("http.debug", "detail", strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// maskCredentials hides bearer tokens from debug request logs.
func maskCredentials(rl *resty.RequestLog) error {
	for k := range rl.Header {
		if strings.EqualFold(k, "Authorization") || strings.EqualFold(k, "X-Auth-Key") {
			rl.Header.Set(k, "(hidden)")
		}
	}
	return nil
}
