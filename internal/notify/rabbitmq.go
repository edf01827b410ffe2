package notify

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EmailJob is the JSON payload queued for the mail worker.
type EmailJob struct {
	To       string            `json:"to"`
	Subject  string            `json:"subject"`
	Text     string            `json:"text"`
	Template string            `json:"template"`
	Data     map[string]string `json:"data,omitempty"`
}

// RabbitSender queues notifications on a durable RabbitMQ queue.
type RabbitSender struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// NewRabbitSender dials the broker and declares the queue.
func NewRabbitSender(url, queue string) (*RabbitSender, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &RabbitSender{conn: conn, ch: ch, queue: queue}, nil
}

func (s *RabbitSender) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(EmailJob{
		To:       msg.To,
		Subject:  msg.Subject(),
		Text:     msg.Text(),
		Template: string(msg.Kind),
		Data:     msg.Variables,
	})
	if err != nil {
		return err
	}
	return s.ch.PublishWithContext(ctx, "", s.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// Close releases the channel and connection.
func (s *RabbitSender) Close() {
	if s == nil {
		return
	}
	if s.ch != nil {
		_ = s.ch.Close()
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
}
