package errors

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTooManyRequestsIncludesRetryHint(t *testing.T) {
	err := TooManyRequests("Typing too fast. Please slow down", 1500*time.Millisecond)

	assert.Equal(t, "TOO_MANY_REQUESTS", err.Code)
	assert.Equal(t, http.StatusTooManyRequests, err.Status)
	assert.Contains(t, err.Message, "Retry in 1.5s")
}

func TestTooManyRequestsWithoutWait(t *testing.T) {
	err := TooManyRequests("Rate limit exceeded", 0)

	assert.Equal(t, "Rate limit exceeded", err.Message)
	assert.NotContains(t, err.Message, "Retry in")
}

func TestIsMatchesWrappedCode(t *testing.T) {
	err := fmt.Errorf("loading chat: %w", NotFound("Chat", nil))

	assert.True(t, Is(err, "NOT_FOUND"))
	assert.False(t, Is(err, "FORBIDDEN"))
	assert.False(t, Is(fmt.Errorf("plain"), "NOT_FOUND"))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, "NOT_FOUND", Code(NotFound("Chat", nil)))
	assert.Equal(t, "INTERNAL_ERROR", Code(fmt.Errorf("plain")))
}
