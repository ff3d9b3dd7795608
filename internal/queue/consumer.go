package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/rachitkansal-dev/prayatak-backend/internal/mailer"
)

// StartEmailConsumer connects to RabbitMQ, declares the email.outbound
// queue (durable), and delivers each job through the mailer. It runs a
// reconnect loop with exponential backoff and never returns under normal
// operation; run it on its own goroutine. Messages that fail delivery are
// rejected without requeue so a bad address cannot spin the consumer.
func StartEmailConsumer(url string, m mailer.Mailer) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			slog.Warn("email-consumer: dial failed", "err", err, "retry_in", backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, m); err != nil {
			slog.Warn("email-consumer: consume loop ended, reconnecting", "err", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, m mailer.Mailer) error {
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		slog.Warn("email-consumer: set QoS failed", "err", err)
	}

	if _, err := ch.QueueDeclare(EmailOutboundQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(EmailOutboundQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body, m); err != nil {
			slog.Error("email-consumer: delivery failed", "err", err)
			_ = d.Nack(false, false) // reject, do not requeue
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte, m mailer.Mailer) error {
	var ev EmailRequestedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := m.Send(ev.To, ev.Subject, ev.Body); err != nil {
		return fmt.Errorf("send to %s: %w", ev.To, err)
	}
	slog.Info("email delivered", "to", ev.To, "subject", ev.Subject)
	return nil
}
