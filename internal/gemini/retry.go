package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// RetryPolicy governs how transient API failures are retried.
type RetryPolicy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int

	// InitialDelay is the wait before the first retry; each subsequent wait
	// is multiplied by Base.
	InitialDelay time.Duration
	Base         float64

	// Codes are the HTTP status codes considered transient.
	Codes []int
}

// DefaultRetryPolicy retries rate limits and server errors three times with
// exponential backoff: 1s, then 2s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:     3,
		InitialDelay: time.Second,
		Base:         2,
		Codes:        []int{429, 500, 503},
	}
}

// retryable reports whether err carries one of the policy's status codes.
func (p RetryPolicy) retryable(err error) bool {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, code := range p.Codes {
		if apiErr.Code == code {
			return true
		}
	}
	return false
}

// do runs fn under the policy, sleeping between attempts. Context
// cancellation aborts the backoff wait.
func (p RetryPolicy) do(ctx context.Context, fn func() error) error {
	delay := p.InitialDelay
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || attempt >= p.Attempts || !p.retryable(err) {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		case <-timer.C:
		}
		delay = time.Duration(float64(delay) * p.Base)
	}
}
