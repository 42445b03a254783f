package infra

import (
	"go.uber.org/zap"

	"github.com/mkliu/usagemon/internal/domain"
)

// ZapErrorSink reports activity-log I/O failures through the structured
// logger. Best effort: zap never panics on write failure with the
// production config, and the sink has nothing else to fall back to.
type ZapErrorSink struct {
	logger *zap.Logger
}

// NewZapErrorSink creates a sink backed by logger.
func NewZapErrorSink(logger *zap.Logger) *ZapErrorSink {
	return &ZapErrorSink{logger: logger}
}

// Report logs the failure at warn level.
func (s *ZapErrorSink) Report(message string) {
	s.logger.Warn("activity log failure", zap.String("detail", message))
}

// Ensure ZapErrorSink implements domain.ErrorSink.
var _ domain.ErrorSink = (*ZapErrorSink)(nil)
