package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* ───────── ヘルパ ───────── */

func testConfig() Config {
	return Config{
		Name:             "test-circuit",
		MaxRequests:      1,
		Interval:         10 * time.Second,
		Timeout:          50 * time.Millisecond,
		FailureThreshold: 0.6,
		MinRequests:      3,
	}
}

func fail(cb *CircuitBreaker, err error, n int) {
	for i := 0; i < n; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, err })
	}
}

/* ───────── テスト ───────── */

func TestNew(t *testing.T) {
	cb := New(testConfig())
	assert.Equal(t, "test-circuit", cb.Name())
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.False(t, cb.IsOpen())
}

func TestDo_TypedResult(t *testing.T) {
	cb := New(testConfig())

	got, err := Do(cb, func() (string, error) { return "summary", nil })
	require.NoError(t, err)
	assert.Equal(t, "summary", got)

	boom := errors.New("boom")
	got, err = Do(cb, func() (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, got)
}

func TestCircuitBreaker_TripsAndRecovers(t *testing.T) {
	var transitions []gobreaker.State
	cfg := testConfig()
	cfg.OnStateChange = func(_ string, _, to gobreaker.State) {
		transitions = append(transitions, to)
	}
	cb := New(cfg)

	fail(cb, errors.New("upstream down"), 3)
	require.True(t, cb.IsOpen())

	called := false
	_, err := cb.Execute(func() (interface{}, error) {
		called = true
		return nil, nil
	})
	assert.True(t, IsRejected(err))
	assert.False(t, called)

	time.Sleep(80 * time.Millisecond)
	_, err = cb.Execute(func() (interface{}, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen, gobreaker.StateHalfOpen, gobreaker.StateClosed}, transitions)
}

func TestCircuitBreaker_IsSuccessfulIgnoresCancellation(t *testing.T) {
	cfg := testConfig()
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, context.Canceled)
	}
	cb := New(cfg)

	fail(cb, context.Canceled, 10)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestConfigs(t *testing.T) {
	assert.Equal(t, "summarizer-openai", SummarizerConfig("openai").Name)
	assert.Equal(t, "object-storage", StorageConfig().Name)
	assert.Equal(t, "x", DefaultConfig("x").Name)
}

func TestIsRejected(t *testing.T) {
	assert.True(t, IsRejected(gobreaker.ErrOpenState))
	assert.True(t, IsRejected(gobreaker.ErrTooManyRequests))
	assert.False(t, IsRejected(errors.New("other")))
}
