package summarizer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledgebase/internal/resilience/retry"
)

func newMessagesServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClaude_Complete(t *testing.T) {
	srv := newMessagesServer(t, http.StatusOK, `{
		"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-sonnet-4-5",
		"content": [{"type": "text", "text": "Claude summary"}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 10, "output_tokens": 3}
	}`)

	c := NewClaude("test-key", "", 0, option.WithBaseURL(srv.URL))
	got, err := c.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Claude summary", got)
	assert.Equal(t, "claude", c.Name())
}

func TestClaude_Complete_ServerError(t *testing.T) {
	srv := newMessagesServer(t, http.StatusServiceUnavailable,
		`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`)

	_, err := NewClaude("test-key", "", 0, option.WithBaseURL(srv.URL)).Complete(context.Background(), "p")
	var he *retry.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusServiceUnavailable, he.StatusCode)
	assert.True(t, retry.IsRetryable(err))
}

func TestClaude_Complete_NoText(t *testing.T) {
	srv := newMessagesServer(t, http.StatusOK, `{
		"id": "msg_2", "type": "message", "role": "assistant", "model": "m",
		"content": [], "stop_reason": "end_turn",
		"usage": {"input_tokens": 1, "output_tokens": 0}
	}`)
	_, err := NewClaude("test-key", "m", 10, option.WithBaseURL(srv.URL)).Complete(context.Background(), "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
