package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/TemirB/b2b-storefront/internal/domain"
)

//go:generate mockgen -source internal/kafka/publisher.go -destination=internal/kafka/publisher_mock_test.go -package=kafka

type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher announces cart changes. Events are keyed by user id so every
// change to one cart lands on the same partition, in order.
type Publisher struct {
	writer Writer
	logger *zap.Logger
}

func NewPublisher(writer Writer, logger *zap.Logger) *Publisher {
	return &Publisher{writer: writer, logger: logger}
}

func NewWriter(brokers []string, topic string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: false,
	}
}

func (p *Publisher) Publish(ctx context.Context, ev domain.CartEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal cart event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(ev.UserID),
		Value: value,
		Time:  ev.At,
	}); err != nil {
		return fmt.Errorf("write cart event: %w", err)
	}
	p.logger.Debug("Cart event published",
		zap.String("user_id", ev.UserID),
		zap.Int64("revision", ev.Revision),
		zap.String("op", string(ev.Op)),
	)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
