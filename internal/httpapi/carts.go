package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/TemirB/b2b-storefront/internal/cart"
	"github.com/TemirB/b2b-storefront/internal/domain"
)

type cartResponse struct {
	State     cart.State         `json:"state"`
	LastError string             `json:"last_error,omitempty"`
	Summary   domain.CartSummary `json:"summary"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type acceptedResponse struct {
	Status string `json:"status"`
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*cart.Session, bool) {
	sess, err := s.carts.SignIn(r.Context(), IdentityFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cartWait)
	err := sess.Await(ctx)
	cancel()
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		s.fail(w, r, err)
		return
	}

	sum, err := sess.Summary(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := cartResponse{State: sess.State(), Summary: sum}
	if lastErr := sess.LastError(); lastErr != nil {
		resp.LastError = lastErr.Error()
	}
	writeJSON(w, resp)
}

func (s *Server) addCartItem(w http.ResponseWriter, r *http.Request) {
	var item domain.NewCartItem
	if !s.decodeJSON(w, r, &item) {
		return
	}
	if err := item.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mutateCart(w, r, func(sess *cart.Session) error {
		return sess.AddItem(r.Context(), item)
	})
}

func (s *Server) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	itemID := chi.URLParam(r, "itemID")
	s.mutateCart(w, r, func(sess *cart.Session) error {
		return sess.UpdateItemQuantity(r.Context(), itemID, req.Quantity)
	})
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	s.mutateCart(w, r, func(sess *cart.Session) error {
		return sess.RemoveItem(r.Context(), itemID)
	})
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	s.mutateCart(w, r, func(sess *cart.Session) error {
		return sess.ClearCart(r.Context())
	})
}

// mutateCart answers 202: the write went through, the resulting cart comes
// back through the session's subscription.
func (s *Server) mutateCart(w http.ResponseWriter, r *http.Request, write func(*cart.Session) error) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := write(sess); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusAccepted, acceptedResponse{Status: "accepted"})
}

func (s *Server) signOut(w http.ResponseWriter, r *http.Request) {
	userID := IdentityFrom(r.Context()).UserID
	if s.carts.SignOut(userID) {
		s.logger.Info("User signed out", zap.String("user_id", userID))
	}
	w.WriteHeader(http.StatusNoContent)
}
