// Package kafka publishes fee ledger notifications to Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nspcc-dev/feeledger-contract/ledger"
	"github.com/segmentio/kafka-go"
)

// MessageIDHeader is the header carrying unique message ID.
const MessageIDHeader = "message-id"

// batchTimeout bounds the wait for a batch to fill, a Publish call writes
// the whole batch at once.
const batchTimeout = 10 * time.Millisecond

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes every notification as a separate JSON message keyed by
// the notification's primary account.
type Publisher struct {
	writer writer
}

// NewPublisher returns Publisher writing to the topic of the given brokers.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: batchTimeout,
		},
	}
}

// Publish implements host.Publisher.
func (p *Publisher) Publish(ctx context.Context, ns []ledger.Notification) error {
	msgs := make([]kafka.Message, 0, len(ns))

	for i := range ns {
		data, err := json.Marshal(ns[i])
		if err != nil {
			return fmt.Errorf("encode %s notification: %w", ns[i].Name, err)
		}

		msgs = append(msgs, kafka.Message{
			Key:   []byte(messageKey(ns[i])),
			Value: data,
			Headers: []kafka.Header{
				{Key: MessageIDHeader, Value: []byte(uuid.NewString())},
			},
		})
	}

	return p.writer.WriteMessages(ctx, msgs...)
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// messageKey keeps messages of the same account in one partition.
func messageKey(n ledger.Notification) string {
	if n.Name == ledger.FeeUpdateNotification {
		return n.From.StringLE()
	}
	return n.To.StringLE()
}
