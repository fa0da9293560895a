package summarizer

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledgebase/internal/resilience/circuitbreaker"
	"knowledgebase/internal/resilience/retry"
)

/* ───────── ヘルパ ───────── */

type stubProvider struct {
	calls   atomic.Int32
	replies []reply
	prompt  string
}

type reply struct {
	text string
	err  error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(_ context.Context, prompt string) (string, error) {
	n := int(s.calls.Add(1)) - 1
	s.prompt = prompt
	if n >= len(s.replies) {
		n = len(s.replies) - 1
	}
	return s.replies[n].text, s.replies[n].err
}

func testOptions() Options {
	return Options{
		Timeout: time.Second,
		Retry: retry.Config{
			Name:         "test",
			MaxAttempts:  3,
			InitialDelay: time.Millisecond,
			MaxDelay:     2 * time.Millisecond,
			Multiplier:   2,
		},
		Breaker: circuitbreaker.Config{
			Name:             "test",
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          time.Minute,
			FailureThreshold: 0.5,
			MinRequests:      2,
		},
	}
}

/* ───────── Summarize ───────── */

func TestSummarize_Success(t *testing.T) {
	p := &stubProvider{replies: []reply{{text: "  A short summary.  "}}}
	s := New(p, testOptions())

	got, err := s.Summarize(context.Background(), "Go Tips", "Use interfaces.")
	require.NoError(t, err)
	assert.Equal(t, "A short summary.", got)
	assert.Contains(t, p.prompt, "Article title: Go Tips")
	assert.Contains(t, p.prompt, "Article: Use interfaces.")
	assert.Equal(t, "stub", s.Name())
}

func TestSummarize_RetriesTransient(t *testing.T) {
	p := &stubProvider{replies: []reply{
		{err: &retry.HTTPError{StatusCode: 503}},
		{text: "ok"},
	}}
	got, err := New(p, testOptions()).Summarize(context.Background(), "t", "b")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.EqualValues(t, 2, p.calls.Load())
}

func TestSummarize_DoesNotRetryClientErrors(t *testing.T) {
	p := &stubProvider{replies: []reply{{err: &retry.HTTPError{StatusCode: 400}}}}
	_, err := New(p, testOptions()).Summarize(context.Background(), "t", "b")
	require.Error(t, err)
	assert.EqualValues(t, 1, p.calls.Load())
}

func TestSummarize_EmptyResponse(t *testing.T) {
	p := &stubProvider{replies: []reply{{text: "   "}}}
	_, err := New(p, testOptions()).Summarize(context.Background(), "t", "b")
	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.EqualValues(t, 1, p.calls.Load())
}

func TestSummarize_BreakerOpensAndRejects(t *testing.T) {
	p := &stubProvider{replies: []reply{{err: &retry.HTTPError{StatusCode: 500}}}}
	s := New(p, testOptions())

	_, err := s.Summarize(context.Background(), "t", "b")
	require.Error(t, err)
	calls := p.calls.Load()

	_, err = s.Summarize(context.Background(), "t", "b")
	require.Error(t, err)
	assert.True(t, circuitbreaker.IsRejected(err))
	assert.Equal(t, calls, p.calls.Load())
}

func TestSummarize_NoOpFailsFast(t *testing.T) {
	s := New(NewNoOp(), testOptions())
	_, err := s.Summarize(context.Background(), "t", "b")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestSummarize_TruncatesInput(t *testing.T) {
	p := &stubProvider{replies: []reply{{text: "ok"}}}
	long := strings.Repeat("あ", MaxInputRunes+50)

	_, err := New(p, testOptions()).Summarize(context.Background(), "t", long)
	require.NoError(t, err)
	assert.Equal(t, MaxInputRunes, strings.Count(p.prompt, "あ"))
}

func TestSummarize_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &stubProvider{replies: []reply{{err: context.Canceled}}}
	_, err := New(p, testOptions()).Summarize(ctx, "t", "b")
	assert.True(t, errors.Is(err, context.Canceled))
}

/* ───────── countsAsSuccess ───────── */

func TestCountsAsSuccess(t *testing.T) {
	assert.True(t, countsAsSuccess(nil))
	assert.True(t, countsAsSuccess(context.Canceled))
	assert.True(t, countsAsSuccess(ErrDisabled))
	assert.True(t, countsAsSuccess(&retry.HTTPError{StatusCode: 400}))
	assert.False(t, countsAsSuccess(&retry.HTTPError{StatusCode: 401}))
	assert.False(t, countsAsSuccess(&retry.HTTPError{StatusCode: 429}))
	assert.False(t, countsAsSuccess(&retry.HTTPError{StatusCode: 502}))
	assert.False(t, countsAsSuccess(errors.New("dial tcp")))
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("Title", "Body")
	assert.True(t, strings.HasPrefix(p, "Please provide a concise summary"))
	assert.True(t, strings.HasSuffix(p, "Article title: Title\nArticle: Body"))
}
