package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/TemirB/b2b-storefront/internal/config"
	"github.com/TemirB/b2b-storefront/internal/domain"
	"github.com/TemirB/b2b-storefront/internal/pkg/retry"
)

//go:generate mockgen -source internal/pricing/oracle.go -destination=internal/pricing/oracle_mock_test.go -package=pricing

var (
	ErrOracleStatus   = errors.New("price oracle returned non-2xx status")
	ErrOracleResponse = errors.New("price oracle returned an invalid response")
)

// Oracle computes the personalized price for one set of params. It may be
// slow and may fail.
type Oracle interface {
	CalculatePrice(ctx context.Context, params domain.PriceParams) (domain.PriceBreakdown, error)
}

type OracleFunc func(ctx context.Context, params domain.PriceParams) (domain.PriceBreakdown, error)

func (f OracleFunc) CalculatePrice(ctx context.Context, params domain.PriceParams) (domain.PriceBreakdown, error) {
	return f(ctx, params)
}

// NoDiscount prices everything at its base price. Used when no remote price
// engine is configured.
var NoDiscount = OracleFunc(func(_ context.Context, p domain.PriceParams) (domain.PriceBreakdown, error) {
	return domain.BasePriceBreakdown(p.BasePrice), nil
})

type oracleResponse struct {
	DiscountAmount *decimal.Decimal `json:"discount_amount"`
	Price          *decimal.Decimal `json:"price"`
	AppliedRule    *string          `json:"applied_rule"`
}

// HTTPOracle asks a remote price engine. The engine answers either a
// per-unit discount_amount or a final price; the breakdown is rebuilt from
// the request's base price so that it is always consistent.
type HTTPOracle struct {
	url    string
	client *http.Client
}

func NewHTTPOracle(url string, client *http.Client) *HTTPOracle {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPOracle{url: url, client: client}
}

func (o *HTTPOracle) CalculatePrice(ctx context.Context, params domain.PriceParams) (domain.PriceBreakdown, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return domain.PriceBreakdown{}, fmt.Errorf("marshal params: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
	if err != nil {
		return domain.PriceBreakdown{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return domain.PriceBreakdown{}, fmt.Errorf("call price oracle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return domain.PriceBreakdown{}, fmt.Errorf("%w: %d", ErrOracleStatus, resp.StatusCode)
	}

	var out oracleResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.PriceBreakdown{}, fmt.Errorf("%w: %v", ErrOracleResponse, err)
	}

	var discount decimal.Decimal
	switch {
	case out.DiscountAmount != nil:
		discount = *out.DiscountAmount
	case out.Price != nil:
		discount = params.BasePrice.Sub(*out.Price)
	default:
		return domain.PriceBreakdown{}, fmt.Errorf("%w: neither price nor discount_amount", ErrOracleResponse)
	}
	if discount.IsNegative() || discount.GreaterThan(params.BasePrice) {
		return domain.PriceBreakdown{}, fmt.Errorf("%w: discount %s outside [0, %s]",
			ErrOracleResponse, discount, params.BasePrice)
	}
	return domain.NewPriceBreakdown(params.BasePrice, discount, out.AppliedRule), nil
}

type Breaker interface {
	Allow() error
	Success()
	Failure()
}

// Guarded wraps an oracle with a circuit breaker, a retry policy and a
// per-attempt timeout.
type Guarded struct {
	next    Oracle
	breaker Breaker
	retry   config.Retry
	timeout time.Duration
	logger  *zap.Logger
}

func NewGuarded(next Oracle, brk Breaker, retryPolicy config.Retry, timeout time.Duration, logger *zap.Logger) *Guarded {
	return &Guarded{
		next:    next,
		breaker: brk,
		retry:   retryPolicy,
		timeout: timeout,
		logger:  logger,
	}
}

func (g *Guarded) CalculatePrice(ctx context.Context, params domain.PriceParams) (domain.PriceBreakdown, error) {
	if err := g.breaker.Allow(); err != nil {
		return domain.PriceBreakdown{}, err
	}

	var out domain.PriceBreakdown
	err := retry.Do(ctx, g.retry, func() error {
		actx, cancel := g.attemptContext(ctx)
		defer cancel()

		b, err := g.next.CalculatePrice(actx, params)
		if err != nil {
			g.logger.Debug("Price oracle attempt failed",
				zap.String("product_id", params.ProductID),
				zap.Error(err),
			)
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		g.breaker.Failure()
		return domain.PriceBreakdown{}, err
	}

	g.breaker.Success()
	return out, nil
}

func (g *Guarded) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}
