package cart

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/TemirB/b2b-storefront/internal/domain"
)

type State int

const (
	StateNoUser State = iota
	StateLoading
	StateSynced
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSynced:
		return "synced"
	case StateError:
		return "error"
	default:
		return "no_user"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Session holds the authoritative cart of one signed-in user. The cart is
// only ever replaced by a store snapshot; mutations write through and wait
// for the subscription to bring the result back.
type Session struct {
	store    Store
	pricer   Pricer
	identity domain.Identity
	logger   *zap.Logger

	mu       sync.RWMutex
	state    State
	cart     domain.Cart
	hasCart  bool
	lastErr  error
	closed   bool
	watchers []chan domain.Cart

	sub       domain.CartSubscription
	ready     chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Open subscribes to the cart of id.UserID and returns a session in the
// Loading state. The first snapshot moves it to Synced.
func Open(ctx context.Context, store Store, pricer Pricer, id domain.Identity, logger *zap.Logger) (*Session, error) {
	if id.UserID == "" {
		return nil, domain.ErrNoUser
	}
	s := &Session{
		store:    store,
		pricer:   pricer,
		identity: id,
		logger:   logger.With(zap.String("user_id", id.UserID)),
		state:    StateLoading,
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}

	sub, err := store.Subscribe(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	s.sub = sub
	go s.run()
	return s, nil
}

func (s *Session) run() {
	defer close(s.done)
	for c := range s.sub.Updates() {
		s.apply(c)
	}
}

func (s *Session) apply(c domain.Cart) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if held := s.cart.Revision; s.hasCart && c.Revision < held {
		s.mu.Unlock()
		s.logger.Debug("Stale cart snapshot ignored",
			zap.Int64("revision", c.Revision),
			zap.Int64("held", held),
		)
		return
	}
	if !s.hasCart {
		close(s.ready)
	}
	s.cart, s.hasCart = c, true
	if s.state == StateLoading {
		s.state = StateSynced
	}
	watchers := append([]chan domain.Cart(nil), s.watchers...)
	s.mu.Unlock()

	// run is the only sender, so a drained channel always has room.
	for _, ch := range watchers {
		select {
		case <-ch:
		default:
		}
		ch <- c.Clone()
	}
}

// Await blocks until the first snapshot has arrived.
func (s *Session) Await(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	default:
	}
	select {
	case <-s.ready:
		return nil
	case <-s.done:
		return domain.ErrNoUser
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) AddItem(ctx context.Context, item domain.NewCartItem) error {
	return s.mutate(func(userID string) error {
		return s.store.AddItem(ctx, userID, item)
	})
}

// UpdateItemQuantity sets the quantity of an item; zero or less removes it.
func (s *Session) UpdateItemQuantity(ctx context.Context, itemID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, itemID)
	}
	return s.mutate(func(userID string) error {
		return s.store.UpdateItemQuantity(ctx, userID, itemID, quantity)
	})
}

func (s *Session) RemoveItem(ctx context.Context, itemID string) error {
	return s.mutate(func(userID string) error {
		return s.store.RemoveItem(ctx, userID, itemID)
	})
}

func (s *Session) ClearCart(ctx context.Context) error {
	return s.mutate(func(userID string) error {
		return s.store.Clear(ctx, userID)
	})
}

func (s *Session) mutate(write func(userID string) error) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return domain.ErrNoUser
	}

	err := write(s.identity.UserID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return err
	}
	if err != nil {
		s.state, s.lastErr = StateError, err
		s.logger.Warn("Cart write failed", zap.Error(err))
		return err
	}
	if s.state == StateError {
		s.lastErr = nil
		s.state = StateLoading
		if s.hasCart {
			s.state = StateSynced
		}
	}
	return nil
}

// Watch returns a channel of reconciled snapshots. It holds at most one
// unread snapshot, the latest, and is closed when the session closes.
func (s *Session) Watch() <-chan domain.Cart {
	ch := make(chan domain.Cart, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch
	}
	if s.hasCart {
		ch <- s.cart.Clone()
	}
	s.watchers = append(s.watchers, ch)
	return ch
}

// Close signs the session out: the subscription is released and no snapshot
// is delivered afterwards.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.state = StateNoUser
		s.mu.Unlock()

		s.sub.Close()
		<-s.done

		s.mu.Lock()
		for _, ch := range s.watchers {
			close(ch)
		}
		s.watchers = nil
		s.mu.Unlock()
	})
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Cart returns the held cart; ok is false until the first snapshot.
func (s *Session) Cart() (c domain.Cart, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone(), s.hasCart
}

func (s *Session) Identity() domain.Identity { return s.identity }
