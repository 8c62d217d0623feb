package usecase

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 1000 * time.Millisecond
)

// Sleeper waits for d. Tests replace it to observe backoff without real time.
type Sleeper func(d time.Duration)

// Retrier runs fallible operations with bounded exponential backoff.
type Retrier struct {
	maxAttempts int
	baseDelay   time.Duration
	sleep       Sleeper
}

func NewRetrier(maxAttempts int, baseDelay time.Duration) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay < 0 {
		baseDelay = DefaultBaseDelay
	}
	return &Retrier{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		sleep:       time.Sleep,
	}
}

func (r *Retrier) WithSleeper(s Sleeper) *Retrier {
	cp := *r
	cp.sleep = s
	return &cp
}

func (r *Retrier) MaxAttempts() int { return r.maxAttempts }

// Delay is the wait after the attempt with the given zero-based index fails.
func (r *Retrier) Delay(attemptIndex int) time.Duration {
	return r.baseDelay * time.Duration(1<<attemptIndex)
}

// Run calls op until it succeeds or every attempt is spent, then returns the last error
// together with the number of attempts made. Caller cancellation does not abort the
// sequence: op always receives a context detached from ctx's cancellation.
func Run[T any](ctx context.Context, r *Retrier, op func(ctx context.Context) (T, error)) (T, int, error) {
	ctx = context.WithoutCancel(ctx)

	var (
		result T
		err    error
	)
	for i := 0; i < r.maxAttempts; i++ {
		result, err = op(ctx)
		if err == nil {
			return result, i + 1, nil
		}
		if i < r.maxAttempts-1 {
			delay := r.Delay(i)
			slog.DebugContext(
				ctx, "operation failed, retrying",
				slog.String("module", "retry"),
				slog.Int("attempt", i+1),
				slog.Duration("delay", delay),
				slog.String("error", err.Error()),
			)
			r.sleep(delay)
		}
	}

	var zero T
	return zero, r.maxAttempts, err
}
