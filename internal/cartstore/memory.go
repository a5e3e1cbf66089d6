package cartstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TemirB/b2b-storefront/internal/domain"
)

// Memory is an in-process cart store. Every write bumps the cart revision and
// pushes the new snapshot to subscribers.
type Memory struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart
	hub   *Hub
	now   func() time.Time
}

func NewMemory(logger *zap.Logger) *Memory {
	return &Memory{
		carts: make(map[string]*domain.Cart),
		hub:   NewHub(logger),
		now:   time.Now,
	}
}

func (m *Memory) AddItem(ctx context.Context, userID string, item domain.NewCartItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	return m.write(ctx, userID, func(c *domain.Cart, now time.Time) error {
		for i := range c.Items {
			if c.Items[i].ProductID == item.ProductID {
				c.Items[i].Quantity += item.Quantity
				c.Items[i].BasePrice = item.BasePrice
				return nil
			}
		}
		c.Items = append(c.Items, domain.CartItem{
			ID:        uuid.NewString(),
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			BasePrice: item.BasePrice,
			AddedAt:   now,
		})
		return nil
	})
}

func (m *Memory) UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	if quantity < 1 {
		return domain.ErrInvalidParams
	}
	return m.write(ctx, userID, func(c *domain.Cart, _ time.Time) error {
		i := slices.IndexFunc(c.Items, func(it domain.CartItem) bool { return it.ID == itemID })
		if i < 0 {
			return domain.ErrItemNotFound
		}
		c.Items[i].Quantity = quantity
		return nil
	})
}

func (m *Memory) RemoveItem(ctx context.Context, userID, itemID string) error {
	return m.write(ctx, userID, func(c *domain.Cart, _ time.Time) error {
		i := slices.IndexFunc(c.Items, func(it domain.CartItem) bool { return it.ID == itemID })
		if i < 0 {
			return domain.ErrItemNotFound
		}
		c.Items = slices.Delete(c.Items, i, i+1)
		return nil
	})
}

func (m *Memory) Clear(ctx context.Context, userID string) error {
	return m.write(ctx, userID, func(c *domain.Cart, _ time.Time) error {
		c.Items = []domain.CartItem{}
		return nil
	})
}

func (m *Memory) Subscribe(ctx context.Context, userID string) (domain.CartSubscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.hub.Subscribe(ctx, userID, func(context.Context) (domain.Cart, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.cart(userID).Clone(), nil
	})
}

// write applies fn to a copy of the cart and commits it only on success.
func (m *Memory) write(ctx context.Context, userID string, fn func(*domain.Cart, time.Time) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if userID == "" {
		return domain.ErrNoUser
	}

	m.mu.Lock()
	next := m.cart(userID).Clone()
	now := m.now()
	if err := fn(&next, now); err != nil {
		m.mu.Unlock()
		return err
	}
	next.Revision++
	next.UpdatedAt = now
	m.carts[userID] = &next
	m.hub.Publish(next)
	m.mu.Unlock()
	return nil
}

func (m *Memory) cart(userID string) domain.Cart {
	if c, ok := m.carts[userID]; ok {
		return *c
	}
	return domain.Cart{UserID: userID, Items: []domain.CartItem{}}
}
