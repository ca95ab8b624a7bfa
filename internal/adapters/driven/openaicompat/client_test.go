package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
)

func TestNewClient(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))

	c, err := NewClient(ClientConfig{BaseURL: "http://localhost:11434/v1/"})
	require.NoError(t, err)
	assert.NotNil(t, c)

	c, err = NewClient(ClientConfig{APIKey: "sk-test", Timeout: time.Second})
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, NewLimiter(0))
	assert.Nil(t, NewLimiter(-5))

	l := NewLimiter(60)
	require.NotNil(t, l)
	assert.InDelta(t, 1.0, float64(l.Limit()), 0.0001)
	assert.Equal(t, 1, l.Burst())
}

func TestWait(t *testing.T) {
	assert.NoError(t, Wait(context.Background(), nil))

	l := NewLimiter(1)
	require.NoError(t, Wait(context.Background(), l))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, Wait(ctx, l))
}

func TestMapError(t *testing.T) {
	assert.NoError(t, MapError("op", nil, domain.ErrLLMUnavailable))

	limited := &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "slow down"}
	err := MapError("chat", limited, domain.ErrLLMUnavailable)
	assert.True(t, errors.Is(err, domain.ErrRateLimited))
	assert.False(t, errors.Is(err, domain.ErrLLMUnavailable))
	assert.Contains(t, err.Error(), "slow down")

	reqLimited := &openai.RequestError{HTTPStatusCode: http.StatusTooManyRequests, Err: errors.New("busy")}
	assert.True(t, errors.Is(MapError("embed", reqLimited, domain.ErrEmbeddingUnavailable), domain.ErrRateLimited))

	server := &openai.APIError{HTTPStatusCode: http.StatusInternalServerError, Message: "boom"}
	err = MapError("chat", fmt.Errorf("wrapped: %w", server), domain.ErrLLMUnavailable)
	assert.True(t, errors.Is(err, domain.ErrLLMUnavailable))
	assert.False(t, errors.Is(err, domain.ErrRateLimited))

	err = MapError("chat", context.DeadlineExceeded, domain.ErrLLMUnavailable)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, errors.Is(err, domain.ErrLLMUnavailable))

	err = MapError("chat", errors.New("dial tcp: refused"), domain.ErrLLMUnavailable)
	assert.True(t, errors.Is(err, domain.ErrLLMUnavailable))
}
