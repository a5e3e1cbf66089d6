package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/TemirB/b2b-storefront/internal/cart"
	"github.com/TemirB/b2b-storefront/internal/catalog"
	"github.com/TemirB/b2b-storefront/internal/domain"
	"github.com/TemirB/b2b-storefront/internal/observability"
	"github.com/TemirB/b2b-storefront/internal/pricing"
)

//go:generate mockgen -source internal/httpapi/httpapi.go -destination=internal/httpapi/httpapi_mock_test.go -package=httpapi

type Pricing interface {
	CalculatePrice(ctx context.Context, params domain.PriceParams) (domain.PriceBreakdown, error)
	CalculatePricesBatch(ctx context.Context, params []domain.PriceParams) ([]domain.PriceBreakdown, error)
	ClearCustomerCache(customerID string) int
	ClearProductCache(productID string) int
	ClearAllCache()
	Stats() pricing.Stats
}

type Catalog interface {
	GetPageWithStats(ctx context.Context, q domain.ProductsQuery) (domain.ProductsResult, catalog.LookupStats, error)
	PreloadNextPage(q domain.ProductsQuery, cursor string)
}

type Server struct {
	pricing Pricing
	catalog Catalog
	carts   *cart.Manager
	router  chi.Router
	logger  *zap.Logger
	metrics observability.Metrics

	metricsHandler  http.Handler
	cartWait        time.Duration
	shutdownTimeout time.Duration
}

type Option func(*Server)

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// WithCartWait bounds how long GET /api/v1/cart waits for the first snapshot
// of a freshly opened session.
func WithCartWait(d time.Duration) Option {
	return func(s *Server) { s.cartWait = d }
}

func New(pricing Pricing, catalog Catalog, carts *cart.Manager, logger *zap.Logger, metrics observability.Metrics, opts ...Option) *Server {
	s := &Server{
		pricing:  pricing,
		catalog:  catalog,
		carts:    carts,
		router:   chi.NewRouter(),
		logger:   logger,
		metrics:  metrics,
		cartWait: 2 * time.Second,

		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(Timing(s.metrics))
	r.Use(Identity)

	r.Get("/healthz", s.health)
	if s.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/prices", s.getPrice)
		r.Post("/prices/batch", s.getPricesBatch)
		r.Get("/prices/stats", s.getPricingStats)
		r.Delete("/prices/cache", s.clearPriceCache)

		r.Get("/products", s.listProducts)

		r.Group(func(r chi.Router) {
			r.Use(RequireUser)
			r.Get("/cart", s.getCart)
			r.Post("/cart/items", s.addCartItem)
			r.Patch("/cart/items/{itemID}", s.updateCartItem)
			r.Delete("/cart/items/{itemID}", s.removeCartItem)
			r.Delete("/cart", s.clearCart)
			r.Post("/session/signout", s.signOut)
		})
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// statusFor maps domain errors onto HTTP statuses. Anything unknown is an
// upstream (store) failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidParams), errors.Is(err, domain.ErrInvalidCursor):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoUser):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrItemNotFound), errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	http.Error(w, err.Error(), status)
}

// decodeJSON reads a JSON body strictly: right content type, no unknown
// fields.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return false
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		s.logger.Debug("Error while decoding JSON", zap.Error(err))
		http.Error(w, "bad json", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx ends. It returns once in-flight
// requests have drained or the shutdown timeout has passed.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-shutdownErr
}

func (s *Server) Handler() http.Handler { return s.router }
