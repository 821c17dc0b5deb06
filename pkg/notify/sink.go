// Package notify delivers the short summaries of notification-worthy events to
// the user.
package notify

import (
	"go.uber.org/zap"

	"github.com/rupaya/live/pkg/events"
	"github.com/rupaya/live/pkg/logging"
	"github.com/rupaya/live/pkg/pubsub"
)

var (
	_ pubsub.NotificationSink = SinkFunc(nil)
	_ pubsub.NotificationSink = (*LogSink)(nil)
	_ pubsub.NotificationSink = Multi(nil)
)

// SinkFunc adapts a function to pubsub.NotificationSink.
type SinkFunc func(message string, severity events.Severity)

// Notify calls f.
func (f SinkFunc) Notify(message string, severity events.Severity) {
	f(message, severity)
}

// LogSink writes notifications to the structured log.
type LogSink struct {
	logger *logging.ColoredLogger
}

// NewLogSink creates a sink that logs through logger.
func NewLogSink(logger *logging.ColoredLogger) *LogSink {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(message string, severity events.Severity) {
	fields := []zap.Field{zap.String("severity", string(severity))}
	switch severity {
	case events.SeverityError:
		s.logger.ComponentError(logging.ComponentNotify, message, fields...)
	default:
		s.logger.ComponentInfo(logging.ComponentNotify, message, fields...)
	}
}

// Multi forwards every notification to each sink in order.
type Multi []pubsub.NotificationSink

func (m Multi) Notify(message string, severity events.Severity) {
	for _, s := range m {
		if s != nil {
			s.Notify(message, severity)
		}
	}
}
