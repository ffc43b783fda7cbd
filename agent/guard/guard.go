// Package guard is the degradation controller: every external call the core
// makes goes through Invoke, which applies a per-attempt timeout and one
// retry, then converts persistent failure into a Degraded result the caller
// must handle as normal control flow.
package guard

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AttemptTimeout time.Duration `envconfig:"ATTEMPT_TIMEOUT" split_words:"true" default:"3s"`
	Retries        int           `envconfig:"RETRIES" split_words:"true" default:"1"`
}

// Controller applies the uniform retry/timeout/fallback discipline.
type Controller struct {
	attemptTimeout time.Duration
	retries        int
	onDegraded     func(op string)
}

type Option func(*Controller)

// WithDegradedHook registers a callback fired once per degraded operation,
// used for metrics.
func WithDegradedHook(fn func(op string)) Option {
	return func(c *Controller) {
		c.onDegraded = fn
	}
}

func New(cfg Config, opts ...Option) *Controller {
	timeout := cfg.AttemptTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}
	c := &Controller{attemptTimeout: timeout, retries: retries}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Result is the outcome of a guarded call. Degraded is a value, never an
// error: callers branch on it and substitute their static fallback.
type Result[T any] struct {
	Value    T
	Degraded bool
	Reason   string
}

// Invoke runs fn with the controller's timeout per attempt, retrying once
// (by default) before synthesizing a Degraded result.
func Invoke[T any](ctx context.Context, c *Controller, op string, fn func(context.Context) (T, error)) Result[T] {
	var lastErr error

	attempts := c.retries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
		value, err := fn(attemptCtx)
		cancel()

		if err == nil {
			return Result[T]{Value: value}
		}

		if errors.Is(err, context.DeadlineExceeded) {
			lastErr = errors.New("timeout")
		} else {
			lastErr = err
		}
		log.Warn().
			Str("op", op).
			Int("attempt", attempt).
			Int("attempts", attempts).
			Err(err).
			Msg("guarded call failed")

		// The parent context is gone; retrying cannot help.
		if ctx.Err() != nil {
			break
		}
	}

	if c.onDegraded != nil {
		c.onDegraded(op)
	}
	log.Error().Str("op", op).Err(lastErr).Msg("operation degraded")

	reason := "unknown"
	if lastErr != nil {
		reason = lastErr.Error()
	}
	var zero T
	return Result[T]{Value: zero, Degraded: true, Reason: reason}
}
