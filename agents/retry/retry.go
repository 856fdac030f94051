/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package retry provides jittered exponential backoff for polling tool
// servers while they start up.
package retry

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/chainguard-dev/clog"
)

// Config configures backoff behavior.
type Config struct {
	// BaseBackoff is the initial backoff duration.
	BaseBackoff time.Duration
	// MaxBackoff caps the exponential growth.
	MaxBackoff time.Duration
	// MaxJitter is the maximum random jitter added to each backoff.
	MaxJitter time.Duration
}

// Validate checks that the configuration has valid values.
func (c Config) Validate() error {
	if c.BaseBackoff < 0 {
		return errors.New("base backoff cannot be negative")
	}
	if c.MaxBackoff < 0 {
		return errors.New("max backoff cannot be negative")
	}
	if c.MaxJitter < 0 {
		return errors.New("max jitter cannot be negative")
	}
	return nil
}

// DefaultConfig returns a configuration tuned for local tool servers, which
// usually answer within a few hundred milliseconds of being spawned.
func DefaultConfig() Config {
	return Config{
		BaseBackoff: 100 * time.Millisecond,
		MaxBackoff:  2 * time.Second,
		MaxJitter:   50 * time.Millisecond,
	}
}

// backoff returns the delay before the given retry attempt (0-based):
// BaseBackoff * 2^attempt capped at MaxBackoff, plus random jitter.
func (c Config) backoff(attempt int) time.Duration {
	d := c.MaxBackoff
	if attempt < 32 {
		d = min(c.BaseBackoff<<attempt, c.MaxBackoff)
	}
	if c.MaxJitter > 0 {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(c.MaxJitter)))
		if err == nil {
			d += time.Duration(n.Int64())
		}
	}
	return d
}

// Until calls fn with backoff until it succeeds or ctx is done. The returned
// error wraps both the context error and the last failure.
func Until(ctx context.Context, cfg Config, operation string, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}

		wait := cfg.backoff(attempt)
		clog.FromContext(ctx).With("operation", operation).
			With("attempt", attempt+1).
			With("backoff", wait).
			With("error", lastErr.Error()).
			Debug("Not ready, polling again")

		select {
		case <-ctx.Done():
		case <-time.After(wait):
			continue
		}
		break
	}
	return fmt.Errorf("%s: %w", operation, errors.Join(ctx.Err(), lastErr))
}
