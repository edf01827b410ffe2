package notify

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/contractor-portal/internal/config"
)

// Drivers accepted in NOTIFY_DRIVER.
const (
	DriverLog      = "log"
	DriverMailgun  = "mailgun"
	DriverRabbitMQ = "rabbitmq"
)

// New selects a Sender from configuration. The returned close func is never nil.
func New(cfg config.NotificationConfig, logger *zap.Logger) (Sender, func(), error) {
	switch strings.ToLower(cfg.Driver) {
	case "", DriverLog:
		return NewLogSender(logger, cfg.EmailFrom), func() {}, nil
	case DriverMailgun:
		if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" {
			return nil, nil, fmt.Errorf("mailgun driver requires MAILGUN_DOMAIN and MAILGUN_API_KEY")
		}
		return NewMailgunSender(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.EmailFrom), func() {}, nil
	case DriverRabbitMQ:
		sender, err := NewRabbitSender(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			return nil, nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		return sender, sender.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown notification driver %q", cfg.Driver)
}
