package cartstore

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/TemirB/b2b-storefront/internal/domain"
)

//go:generate mockgen -source internal/cartstore/remote.go -destination=internal/cartstore/remote_mock_test.go -package=cartstore

// CartRepository persists carts and returns the revision each write produced.
type CartRepository interface {
	AddItem(ctx context.Context, userID string, item domain.NewCartItem) (int64, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) (int64, error)
	RemoveItem(ctx context.Context, userID, itemID string) (int64, error)
	Clear(ctx context.Context, userID string) (int64, error)
	Snapshot(ctx context.Context, userID string) (domain.Cart, error)
}

type Publisher interface {
	Publish(ctx context.Context, ev domain.CartEvent) error
}

// NopPublisher drops cart events. A single instance without Kafka needs no
// one else to hear about its writes.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.CartEvent) error { return nil }

// Remote is the cart store backed by Postgres. Local subscribers are refreshed
// right after a write; other instances learn about it from the cart event.
type Remote struct {
	repo   CartRepository
	pub    Publisher
	hub    *Hub
	logger *zap.Logger
	now    func() time.Time
}

func NewRemote(repo CartRepository, pub Publisher, logger *zap.Logger) *Remote {
	return &Remote{
		repo:   repo,
		pub:    pub,
		hub:    NewHub(logger),
		logger: logger,
		now:    time.Now,
	}
}

func (r *Remote) AddItem(ctx context.Context, userID string, item domain.NewCartItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	return r.write(ctx, userID, domain.CartOpAdd, func() (int64, error) {
		return r.repo.AddItem(ctx, userID, item)
	})
}

func (r *Remote) UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	if quantity < 1 {
		return domain.ErrInvalidParams
	}
	return r.write(ctx, userID, domain.CartOpUpdate, func() (int64, error) {
		return r.repo.UpdateItemQuantity(ctx, userID, itemID, quantity)
	})
}

func (r *Remote) RemoveItem(ctx context.Context, userID, itemID string) error {
	return r.write(ctx, userID, domain.CartOpRemove, func() (int64, error) {
		return r.repo.RemoveItem(ctx, userID, itemID)
	})
}

func (r *Remote) Clear(ctx context.Context, userID string) error {
	return r.write(ctx, userID, domain.CartOpClear, func() (int64, error) {
		return r.repo.Clear(ctx, userID)
	})
}

func (r *Remote) Subscribe(ctx context.Context, userID string) (domain.CartSubscription, error) {
	if userID == "" {
		return nil, domain.ErrNoUser
	}
	return r.hub.Subscribe(ctx, userID, func(ctx context.Context) (domain.Cart, error) {
		return r.repo.Snapshot(ctx, userID)
	})
}

// Refresh reloads the cart of userID and pushes it to local subscribers. It
// does nothing when nobody here watches that cart.
func (r *Remote) Refresh(ctx context.Context, userID string) error {
	if !r.hub.Watched(userID) {
		return nil
	}
	c, err := r.repo.Snapshot(ctx, userID)
	if err != nil {
		return err
	}
	r.hub.Publish(c)
	return nil
}

func (r *Remote) write(ctx context.Context, userID string, op domain.CartOp, fn func() (int64, error)) error {
	if userID == "" {
		return domain.ErrNoUser
	}
	rev, err := fn()
	if err != nil {
		return err
	}

	ev := domain.CartEvent{UserID: userID, Revision: rev, Op: op, At: r.now().UTC()}
	if err := r.pub.Publish(ctx, ev); err != nil {
		r.logger.Warn("Failed to publish cart event",
			zap.String("user_id", userID),
			zap.Int64("revision", rev),
			zap.Error(err),
		)
	}

	if err := r.Refresh(ctx, userID); err != nil {
		r.logger.Warn("Failed to refresh cart after write",
			zap.String("user_id", userID),
			zap.Int64("revision", rev),
			zap.Error(err),
		)
	}
	return nil
}
