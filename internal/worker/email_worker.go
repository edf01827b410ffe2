// Package worker consumes queued notification jobs.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/spec-kit/contractor-portal/internal/notify"
)

const deliverTimeout = 15 * time.Second

// Mailer delivers a rendered email.
type Mailer interface {
	Deliver(ctx context.Context, to, subject, text string) error
}

// ErrMalformedJob marks a job that can never be delivered.
var ErrMalformedJob = errors.New("malformed email job")

// EmailWorker drains the email queue filled by notify.RabbitSender.
type EmailWorker struct {
	mailer   Mailer
	logger   *zap.Logger
	prefetch int
}

// NewEmailWorker builds a worker.
func NewEmailWorker(mailer Mailer, logger *zap.Logger) *EmailWorker {
	return &EmailWorker{mailer: mailer, logger: logger, prefetch: 16}
}

// Handle delivers one job body. ErrMalformedJob means the job should be
// dropped; any other error means it may succeed on redelivery.
func (w *EmailWorker) Handle(ctx context.Context, body []byte) error {
	var job notify.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJob, err)
	}
	if strings.TrimSpace(job.To) == "" {
		return fmt.Errorf("%w: missing recipient", ErrMalformedJob)
	}
	subject := job.Subject
	if subject == "" {
		subject = job.Template
	}

	c, cancel := context.WithTimeout(ctx, deliverTimeout)
	defer cancel()
	if err := w.mailer.Deliver(c, job.To, subject, job.Text); err != nil {
		return fmt.Errorf("deliver %s: %w", job.Template, err)
	}
	return nil
}

// Run consumes queue until ctx is cancelled or the channel closes.
func (w *EmailWorker) Run(ctx context.Context, url, queue string) error {
	conn, err := amqp.Dial(url)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(w.prefetch, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	w.logger.Info("email worker listening", zap.String("queue", queue))
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("amqp delivery channel closed")
			}
			w.ack(ctx, msg)
		}
	}
}

func (w *EmailWorker) ack(ctx context.Context, msg amqp.Delivery) {
	err := w.Handle(ctx, msg.Body)
	switch {
	case err == nil:
		_ = msg.Ack(false)
	case errors.Is(err, ErrMalformedJob):
		w.logger.Warn("dropping email job", zap.Error(err))
		_ = msg.Nack(false, false)
	default:
		w.logger.Warn("email delivery failed; requeueing", zap.Error(err))
		_ = msg.Nack(false, true)
	}
}
