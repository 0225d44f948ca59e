package naming

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/osama1998H/frappe/internal/domain"
)

// RetryPolicy bounds how often a create is re-attempted after losing a
// naming race to a concurrent insert.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseDelay is the first backoff interval; it doubles per retry.
	BaseDelay time.Duration
}

// DefaultRetryPolicy allows five attempts starting at 10ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, BaseDelay: 10 * time.Millisecond}
}

func (p RetryPolicy) backoff() retry.Backoff {
	attempts := max(p.MaxAttempts, 1)
	base := p.BaseDelay
	if base <= 0 {
		base = time.Millisecond
	}
	b := retry.NewExponential(base)
	b = retry.WithJitterPercent(20, b)
	return retry.WithMaxRetries(uint64(attempts-1), b)
}

// CreateWithRetry runs fn until it succeeds, fails with an error other than
// domain.ErrConflict, or the policy is exhausted. fn must compute a fresh
// name on every call so a retry sees the collision that caused it.
// An exhausted budget is reported as domain.ErrConflict.
func CreateWithRetry(ctx context.Context, p RetryPolicy, fn func(ctx context.Context) error) error {
	attempt := 0
	err := retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if errors.Is(err, domain.ErrConflict) {
			return retry.RetryableError(err)
		}
		return err
	})
	if errors.Is(err, domain.ErrConflict) {
		return fmt.Errorf("naming.CreateWithRetry: gave up after %d attempts: %w", attempt, err)
	}
	return err
}
