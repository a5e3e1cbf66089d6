package kafka

import (
	"context"
	"errors"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/TemirB/b2b-storefront/internal/config"
	"github.com/TemirB/b2b-storefront/internal/observability"
)

//go:generate mockgen -source internal/kafka/consumer.go -destination=internal/kafka/consumer_mock_test.go -package=kafka

type MessageHandler interface {
	Handle(ctx context.Context, msg kafkago.Message) error
}

type Reader interface {
	Config() kafkago.ReaderConfig
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// Consumer fetches cart events and hands them to a worker pool. Offsets are
// committed in fetch order, and only for messages the handler accepted.
type Consumer struct {
	handler MessageHandler
	reader  Reader
	zlogger *zap.Logger
	metrics observability.Metrics

	workerPoolSize int
	jobs           chan jobItem
	done           chan struct{}

	retryDelay time.Duration
	idleDelay  time.Duration
}

type jobItem struct {
	msg    kafkago.Message
	result chan error
}

func NewConsumer(handler MessageHandler, reader Reader, workers int, logger *zap.Logger, metrics observability.Metrics) *Consumer {
	if workers < 1 {
		workers = 1
	}
	return &Consumer{
		handler:        handler,
		reader:         reader,
		zlogger:        logger,
		metrics:        metrics,
		workerPoolSize: workers,
		jobs:           make(chan jobItem, workers*2),
		done:           make(chan struct{}),
		retryDelay:     200 * time.Millisecond,
		idleDelay:      10 * time.Second,
	}
}

// NewReader builds a consumer-group reader for the cart events topic. A new
// group starts at the newest offset: older events describe carts nobody here
// has loaded yet.
func NewReader(cfg config.Kafka) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.Group,
		Topic:          cfg.Topic,
		MinBytes:       1,
		MaxBytes:       1 << 20,
		MaxWait:        time.Second,
		StartOffset:    kafkago.LastOffset,
		CommitInterval: 0,
	})
}

// Done is closed once Start has returned.
func (c *Consumer) Done() <-chan struct{} { return c.done }

// Start blocks until ctx ends.
func (c *Consumer) Start(ctx context.Context) {
	defer close(c.done)

	rc := c.reader.Config()
	c.zlogger.Info("Starting Kafka consumer",
		zap.Strings("brokers", rc.Brokers),
		zap.String("group", rc.GroupID),
		zap.String("topic", rc.Topic),
		zap.Strings("group_topic", rc.GroupTopics),
	)

	for i := 0; i < c.workerPoolSize; i++ {
		go c.worker(ctx, i)
	}

	for ctx.Err() == nil {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			if isBenignFetchTimeout(err) {
				c.zlogger.Debug("Kafka fetch idle, backing off", zap.Error(err))
				sleepWithContext(ctx, c.idleDelay)
				continue
			}
			c.zlogger.Warn("Kafka fetch failed, backing off", zap.Error(err))
			sleepWithContext(ctx, c.retryDelay)
			continue
		}

		// One message in flight at a time keeps commits in fetch order; the
		// pool only isolates the handler from the fetch loop.
		ok, procErr := c.dispatch(ctx, msg)
		if !ok {
			return
		}
		if procErr != nil {
			c.zlogger.Error("Cart event rejected, offset not committed",
				zap.Error(procErr),
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
			)
			sleepWithContext(ctx, c.retryDelay)
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.zlogger.Warn("Kafka commit failed",
				zap.Error(err),
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
			)
			sleepWithContext(ctx, c.retryDelay)
			continue
		}
		c.zlogger.Debug("Cart event committed",
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
		)
	}
}

// dispatch runs msg on a worker and waits for its outcome. ok is false when
// ctx ended first.
func (c *Consumer) dispatch(ctx context.Context, msg kafkago.Message) (ok bool, err error) {
	result := make(chan error, 1)
	select {
	case c.jobs <- jobItem{msg: msg, result: result}:
	case <-ctx.Done():
		return false, nil
	}
	select {
	case err = <-result:
		return true, err
	case <-ctx.Done():
		return false, nil
	}
}

// worker handles one message at a time and reports on its result channel.
func (c *Consumer) worker(ctx context.Context, id int) {
	log := c.zlogger.With(zap.Int("worker", id))

	for {
		select {
		case <-ctx.Done():
			return
		case it := <-c.jobs:
			if it.result == nil {
				continue
			}

			msg := it.msg
			start := time.Now()

			err := c.handler.Handle(ctx, msg)

			elapsed := time.Since(start)
			c.metrics.ObserveCartEvent(float64(elapsed.Microseconds())/1000.0, err == nil)
			if err != nil {
				log.Error("message handling failed",
					zap.Error(err),
					zap.String("topic", msg.Topic),
					zap.Int("partition", msg.Partition),
					zap.Int64("offset", msg.Offset),
					zap.Duration("elapsed", elapsed),
				)
				it.result <- err
				continue
			}

			log.Debug("message handled",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Int("key_bytes", len(msg.Key)),
				zap.Int("value_bytes", len(msg.Value)),
				zap.Duration("elapsed", elapsed),
			)
			it.result <- nil
		}
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func isBenignFetchTimeout(err error) bool {
	s := err.Error()
	return strings.Contains(s, "Request Timed Out") ||
		strings.Contains(s, "no messages received from kafka within the allocated time")
}
