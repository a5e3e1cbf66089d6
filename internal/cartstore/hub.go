package cartstore

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/TemirB/b2b-storefront/internal/domain"
)

// Hub fans cart snapshots out to per-user subscribers. Delivery conflates: a
// subscriber that has not read yet only ever holds the latest snapshot, and a
// snapshot older than one already handed over is dropped.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*subscription]struct{}
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]map[*subscription]struct{}),
		logger: logger,
	}
}

// Subscribe registers a subscriber for userID, then loads the current cart
// and hands it over as the first snapshot. Registering first means a publish
// racing with load is never lost.
func (h *Hub) Subscribe(
	ctx context.Context,
	userID string,
	load func(context.Context) (domain.Cart, error),
) (domain.CartSubscription, error) {
	s := &subscription{hub: h, userID: userID, ch: make(chan domain.Cart, 1)}

	h.mu.Lock()
	set, ok := h.subs[userID]
	if !ok {
		set = make(map[*subscription]struct{})
		h.subs[userID] = set
	}
	set[s] = struct{}{}
	n := len(set)
	h.mu.Unlock()

	initial, err := load(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.deliver(initial)

	h.logger.Debug("Cart subscriber added", zap.String("user_id", userID), zap.Int("subscribers", n))
	return s, nil
}

// Publish hands c to every subscriber of c.UserID.
func (h *Hub) Publish(c domain.Cart) {
	h.mu.Lock()
	targets := make([]*subscription, 0, len(h.subs[c.UserID]))
	for s := range h.subs[c.UserID] {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	for _, s := range targets {
		s.deliver(c.Clone())
	}
}

// Watched reports whether anyone subscribes to userID.
func (h *Hub) Watched(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID]) > 0
}

func (h *Hub) remove(s *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[s.userID]
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, s.userID)
	}
}

type subscription struct {
	hub    *Hub
	userID string

	mu     sync.Mutex
	ch     chan domain.Cart
	last   int64
	sent   bool
	closed bool
}

func (s *subscription) Updates() <-chan domain.Cart { return s.ch }

func (s *subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()

	s.hub.remove(s)
}

func (s *subscription) deliver(c domain.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || (s.sent && c.Revision < s.last) {
		return
	}
	s.last, s.sent = c.Revision, true
	// Drop the unread snapshot, if any, in favour of c.
	select {
	case <-s.ch:
	default:
	}
	s.ch <- c
}
