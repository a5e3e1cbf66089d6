package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/TemirB/b2b-storefront/internal/config"
)

// Do calls fn until it succeeds or the policy's attempts are used up,
// sleeping with exponential backoff and jitter between attempts. fn runs at
// least once.
func Do(ctx context.Context, retryPolicy config.Retry, fn func() error) error {
	attempts := retryPolicy.Attempts
	if attempts < 1 {
		attempts = 1
	}
	d := retryPolicy.Base
	var err error

	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		delay := d
		if retryPolicy.JitterFactor > 0 {
			jitter := 1 + retryPolicy.JitterFactor*(2*r.Float64()-1)
			delay = time.Duration(float64(delay) * jitter)
		}

		if retryPolicy.Max > 0 && delay > retryPolicy.Max {
			delay = retryPolicy.Max
		}

		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}

		d *= 2
		if retryPolicy.Max > 0 && d > retryPolicy.Max {
			d = retryPolicy.Max
		}
	}
	return err
}
