package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/TemirB/b2b-storefront/internal/config"
	"github.com/TemirB/b2b-storefront/internal/domain"
	"github.com/TemirB/b2b-storefront/internal/pkg/retry"
)

//go:generate mockgen -source internal/cartstore/events.go -destination=internal/cartstore/events_mock_test.go -package=cartstore

var (
	ErrBadJSON     = errors.New("bad json")
	ErrRefresh     = errors.New("refresh failed")
	ErrCircuitOpen = errors.New("circuit breaker open")
)

type Refresher interface {
	Refresh(ctx context.Context, userID string) error
}

type Breaker interface {
	Allow() error
	Success()
	Failure()
}

type EventHandler struct {
	refresher   Refresher
	breaker     Breaker
	logger      *zap.Logger
	retryPolicy config.Retry
}

func NewEventHandler(refresher Refresher, brk Breaker, retryPolicy config.Retry, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		refresher:   refresher,
		breaker:     brk,
		logger:      logger,
		retryPolicy: retryPolicy,
	}
}

// Handle processes one cart event. The consumer commits the offset once it
// returns nil.
func (h *EventHandler) Handle(ctx context.Context, message kafkago.Message) error {
	if err := h.breaker.Allow(); err != nil {
		h.logger.Warn("circuit breaker is open",
			zap.Error(err),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}

	var ev domain.CartEvent
	if err := json.Unmarshal(message.Value, &ev); err != nil {
		h.logger.Error("bad json format",
			zap.Error(err),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		h.breaker.Failure()
		return ErrBadJSON
	}
	if ev.UserID == "" {
		h.logger.Error("missing user_id",
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		h.breaker.Failure()
		return ErrBadJSON
	}

	if err := retry.Do(ctx, h.retryPolicy, func() error {
		return h.refresher.Refresh(ctx, ev.UserID)
	}); err != nil {
		h.logger.Error("cart refresh failed after retries",
			zap.String("user_id", ev.UserID),
			zap.Int64("revision", ev.Revision),
			zap.Error(err),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		h.breaker.Failure()
		return ErrRefresh
	}

	h.breaker.Success()
	h.logger.Debug("cart event processed",
		zap.String("user_id", ev.UserID),
		zap.Int64("revision", ev.Revision),
		zap.String("op", string(ev.Op)),
		zap.Int("partition", message.Partition),
		zap.Int64("offset", message.Offset),
	)
	return nil
}
