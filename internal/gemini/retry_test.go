package gemini

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:     3,
		InitialDelay: time.Millisecond,
		Base:         2,
		Codes:        []int{429, 500, 503},
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	p := fastPolicy()

	calls := 0
	err := p.do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return genai.APIError{Code: 503, Message: "overloaded"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	p := fastPolicy()

	calls := 0
	err := p.do(context.Background(), func() error {
		calls++
		return genai.APIError{Code: 429, Message: "rate limited"}
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)

	var apiErr genai.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 429, apiErr.Code)
}

func TestRetry_NonRetryableFailsImmediately(t *testing.T) {
	p := fastPolicy()

	calls := 0
	err := p.do(context.Background(), func() error {
		calls++
		return genai.APIError{Code: 400, Message: "bad request"}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_PlainErrorNotRetried(t *testing.T) {
	p := fastPolicy()

	calls := 0
	err := p.do(context.Background(), func() error {
		calls++
		return fmt.Errorf("network unreachable")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_ContextCancelAbortsBackoff(t *testing.T) {
	p := RetryPolicy{
		Attempts:     3,
		InitialDelay: time.Hour,
		Base:         2,
		Codes:        []int{503},
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := p.do(ctx, func() error {
		return genai.APIError{Code: 503}
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"  {\"a\": 1}  ", `{"a": 1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripFences(tt.in))
	}
}
