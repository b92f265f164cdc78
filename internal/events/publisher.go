// Package events publishes ticket lifecycle events to Kafka. Publishing is
// best-effort and never blocks or fails a lifecycle transition.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/rawstudio/ticketbot/internal/model"
)

// Publisher emits ticket lifecycle events. Implementations must be safe to
// call with a nil-configured backend.
type Publisher interface {
	TicketEvent(ctx context.Context, event string, t *model.Ticket)
}

// Event names.
const (
	EventTicketCreated = "ticket.created"
	EventStatusChanged = "ticket.status_changed"
	EventReminderSent  = "ticket.reminder_sent"
)

// KafkaPublisher writes lifecycle events to a Kafka topic. With no brokers
// or topic configured every method is a no-op.
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
}

func NewKafka(brokers []string, topic string) *KafkaPublisher {
	if len(brokers) == 0 || topic == "" {
		return &KafkaPublisher{}
	}
	return &KafkaPublisher{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) TicketEvent(ctx context.Context, event string, t *model.Ticket) {
	if p.writer == nil {
		return
	}
	body, err := json.Marshal(map[string]interface{}{
		"event":          event,
		"ticket_id":      t.ID,
		"channel_id":     t.ChannelID,
		"guild_id":       t.GuildID,
		"user_id":        t.UserID,
		"status":         string(t.Status),
		"reminder_count": t.ReminderCount,
	})
	if err != nil {
		logrus.WithError(err).Warn("events: marshal ticket event")
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(t.ChannelID), Value: body}); err != nil {
		logrus.WithError(err).WithField("event", event).Warn("events: write ticket event")
	}
}

func (p *KafkaPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
