// Package kafka publishes ledger notifications to Apache Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/segmentio/kafka-go"
)

// DefaultTopic is a topic notifications are written to if none is specified.
const DefaultTopic = "splitter_notifications"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes notifications as JSON messages keyed by notification name.
type Publisher struct {
	writer messageWriter
}

// NewPublisher returns Publisher writing to the topic of the given brokers.
func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}

	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish implements events.Publisher. All notifications are written in one
// batch.
func (p *Publisher) Publish(ctx context.Context, events []state.NotificationEvent) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, len(events))

	for i := range events {
		data, err := json.Marshal(&events[i])
		if err != nil {
			return fmt.Errorf("encode notification '%s': %w", events[i].Name, err)
		}

		msgs[i] = kafka.Message{
			Key:   []byte(events[i].Name),
			Value: data,
		}
	}

	err := p.writer.WriteMessages(ctx, msgs...)
	if err != nil {
		return fmt.Errorf("write %d messages: %w", len(msgs), err)
	}

	return nil
}

// Close flushes pending messages and closes connections to the brokers.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
