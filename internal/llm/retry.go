package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RetryConfig bounds the retry loop of a RetryClient
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Jitter is the relative spread applied to each delay, 0.5 means ±50%
	Jitter float64
}

// DefaultRetryConfig returns three attempts starting at one second
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Jitter:      0.5,
	}
}

// RetryOption customizes a RetryClient
type RetryOption func(*RetryClient)

// WithLimiter paces every attempt through limiter
func WithLimiter(limiter *rate.Limiter) RetryOption {
	return func(r *RetryClient) { r.limiter = limiter }
}

// WithLogger logs every retry at warn level
func WithLogger(logger *zap.Logger) RetryOption {
	return func(r *RetryClient) { r.logger = logger }
}

// WithSleep replaces the context-aware sleep between attempts
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(r *RetryClient) { r.sleep = sleep }
}

// WithJitterSource replaces the uniform [0,1) source used for jitter
func WithJitterSource(next func() float64) RetryOption {
	return func(r *RetryClient) { r.jitter = next }
}

// WithRetryHook is called before every retry with the attempt that failed
func WithRetryHook(hook func(attempt int, err error)) RetryOption {
	return func(r *RetryClient) { r.onRetry = hook }
}

// RetryClient decorates a Client with bounded exponential backoff on
// transient errors
type RetryClient struct {
	inner   Client
	config  RetryConfig
	limiter *rate.Limiter
	logger  *zap.Logger
	sleep   func(ctx context.Context, d time.Duration) error
	jitter  func() float64
	onRetry func(attempt int, err error)
}

// NewRetryClient wraps inner. Zero fields of cfg take the defaults.
func NewRetryClient(inner Client, cfg RetryConfig, opts ...RetryOption) *RetryClient {
	def := DefaultRetryConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.Jitter < 0 || cfg.Jitter > 1 {
		cfg.Jitter = def.Jitter
	}

	r := &RetryClient{
		inner:  inner,
		config: cfg,
		logger: zap.NewNop(),
		sleep:  sleepContext,
		jitter: rand.Float64,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewLimiter returns a limiter allowing rps requests per second, or nil when
// rps is not positive
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func (r *RetryClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return r.do(ctx, "generate_content", func(ctx context.Context) (string, error) {
		return r.inner.GenerateContent(ctx, prompt, tier)
	})
}

func (r *RetryClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return r.do(ctx, "generate_json", func(ctx context.Context) (string, error) {
		return r.inner.GenerateJSON(ctx, prompt, tier)
	})
}

func (r *RetryClient) Close() error {
	return r.inner.Close()
}

func (r *RetryClient) do(ctx context.Context, op string, call func(context.Context) (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt < r.config.MaxAttempts; attempt++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}

		text, err := call(ctx)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || !IsTransient(err) {
			return "", err
		}
		if attempt == r.config.MaxAttempts-1 {
			break
		}

		delay := r.Backoff(attempt)
		var t *TransientError
		if errors.As(err, &t) && t.RetryAfter > delay {
			delay = t.RetryAfter
		}

		r.logger.Warn("retrying llm call",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", r.config.MaxAttempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if r.onRetry != nil {
			r.onRetry(attempt+1, err)
		}

		if err := r.sleep(ctx, delay); err != nil {
			return "", err
		}
	}

	return "", &RetryExhaustedError{Attempts: r.config.MaxAttempts, Cause: lastErr}
}

// Backoff returns the delay after the given zero-based failed attempt:
// BaseDelay doubled per attempt, capped at MaxDelay, spread by ±Jitter.
func (r *RetryClient) Backoff(attempt int) time.Duration {
	delay := r.config.BaseDelay
	for i := 0; i < attempt && delay < r.config.MaxDelay; i++ {
		delay *= 2
	}
	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}

	factor := 1 + r.config.Jitter*(2*r.jitter()-1)
	return time.Duration(float64(delay) * factor)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
