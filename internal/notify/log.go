package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Log writes notifications to the logger. It is used when no webhook is
// configured.
type Log struct {
	logger *zap.Logger
	allow  Policy
	now    func() time.Time
}

// NewLog creates a log notifier that honours the given delivery policy.
// A nil policy delivers at any time.
func NewLog(logger *zap.Logger, allow Policy) *Log {
	if allow == nil {
		allow = AlwaysDeliver
	}
	return &Log{logger: logger.Named("notify"), allow: allow, now: time.Now}
}

func (l *Log) Send(_ context.Context, message string) (Result, error) {
	if !l.allow(l.now()) {
		l.logger.Info("Notification suppressed during quiet hours", zap.String("message", message))
		return Suppressed, nil
	}
	l.logger.Info("Notification", zap.String("message", message))
	return Delivered, nil
}
