/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package load

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bennypowers.dev/dualpack/internal/logger"
	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy configures exponential backoff for remote fetches.
type RetryPolicy struct {
	InitialInterval time.Duration
	Multiplier      float64
	MaxInterval     time.Duration
	MaxRetries      uint64
}

// DefaultRetryPolicy waits 250ms, doubling up to 10s, for at most 5 retries.
var DefaultRetryPolicy = RetryPolicy{
	InitialInterval: 250 * time.Millisecond,
	Multiplier:      2,
	MaxInterval:     10 * time.Second,
	MaxRetries:      5,
}

// FetchError is returned once the retry budget for a URL is exhausted,
// or when the failure is not retryable.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrFetchFailed, e.Err}
}

// RetryFetcher retries a Fetcher with exponential backoff.
type RetryFetcher struct {
	next   Fetcher
	policy RetryPolicy
}

// NewRetryFetcher wraps next with the given policy.
func NewRetryFetcher(next Fetcher, policy RetryPolicy) *RetryFetcher {
	return &RetryFetcher{next: next, policy: policy}
}

func (r *RetryFetcher) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(r.policy.InitialInterval),
		backoff.WithMultiplier(r.policy.Multiplier),
		backoff.WithMaxInterval(r.policy.MaxInterval),
		backoff.WithRandomizationFactor(0),
		backoff.WithMaxElapsedTime(0),
	)
	return backoff.WithContext(backoff.WithMaxRetries(b, r.policy.MaxRetries), ctx)
}

// Fetch fetches url, retrying transient failures.
func (r *RetryFetcher) Fetch(ctx context.Context, url string) (*Response, error) {
	attempts := 0
	op := func() (*Response, error) {
		attempts++
		resp, err := r.next.Fetch(ctx, url)
		if err == nil {
			return resp, nil
		}
		var classified retryable
		if errors.As(err, &classified) && !classified.Retryable() {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	notify := func(err error, wait time.Duration) {
		logger.Debugw("retrying fetch", "url", url, "attempt", attempts, "wait", wait, "err", err)
	}

	resp, err := backoff.RetryNotifyWithData(op, r.newBackOff(ctx), notify)
	if err != nil {
		return nil, &FetchError{URL: url, Attempts: attempts, Err: err}
	}
	return resp, nil
}
