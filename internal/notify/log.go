package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogSender writes notifications to the logger instead of delivering them.
type LogSender struct {
	logger *zap.Logger
	from   string
}

// NewLogSender builds a sender for development environments.
func NewLogSender(logger *zap.Logger, from string) *LogSender {
	return &LogSender{logger: logger, from: from}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("notification",
		zap.String("kind", string(msg.Kind)),
		zap.String("from", s.from),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject()))
	return nil
}
