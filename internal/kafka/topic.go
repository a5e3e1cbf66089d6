package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/TemirB/b2b-storefront/internal/config"
)

var ErrNoBrokers = errors.New("no kafka brokers configured")

// EnsureTopic creates the cart events topic when it is missing and waits until
// all its partitions show up in the metadata. Running it concurrently or on
// an existing topic is harmless.
func EnsureTopic(ctx context.Context, cfg config.Kafka, replicationFactor int, log *zap.Logger) error {
	if len(cfg.Brokers) == 0 {
		return ErrNoBrokers
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return fmt.Errorf("empty topic")
	}
	partitions := max(cfg.Partitions, 1)

	dialer := &kafkago.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.Brokers[0])
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close()

	if parts, err := conn.ReadPartitions(cfg.Topic); err == nil && len(parts) > 0 {
		log.Info("Kafka topic exists", zap.String("topic", cfg.Topic), zap.Int("partitions", len(parts)))
		return nil
	}

	// Topics can only be created on the controller.
	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("get controller: %w", err)
	}
	ctrlAddr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	ctrlConn, err := dialer.DialContext(ctx, "tcp", ctrlAddr)
	if err != nil {
		return fmt.Errorf("dial controller %s: %w", ctrlAddr, err)
	}
	defer ctrlConn.Close()

	log.Info("Creating Kafka topic",
		zap.String("topic", cfg.Topic),
		zap.Int("partitions", partitions),
		zap.Int("replication", replicationFactor),
	)
	err = ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             cfg.Topic,
		NumPartitions:     partitions,
		ReplicationFactor: replicationFactor,
	})
	if err != nil && !errors.Is(err, kafkago.TopicAlreadyExists) {
		return fmt.Errorf("create topic: %w", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		parts, err := conn.ReadPartitions(cfg.Topic)
		if err == nil && len(parts) >= partitions {
			log.Info("Kafka topic is ready", zap.String("topic", cfg.Topic), zap.Int("partitions", len(parts)))
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("topic %s not visible after creation", cfg.Topic)
		}
		sleepWithContext(ctx, 500*time.Millisecond)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}
