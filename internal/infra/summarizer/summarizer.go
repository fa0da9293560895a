// Package summarizer produces article summaries through a language-model
// provider. Every provider call goes through a rate limiter, a circuit breaker
// and retry with backoff.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"knowledgebase/internal/resilience/circuitbreaker"
	"knowledgebase/internal/resilience/retry"
	"knowledgebase/internal/utils/text"
)

// MaxInputRunes bounds the article text sent to a provider.
const MaxInputRunes = 10000

// ErrDisabled is returned by the noop provider.
var ErrDisabled = errors.New("summarizer disabled")

// ErrEmptyResponse is returned when a provider answers without text.
var ErrEmptyResponse = errors.New("provider returned an empty summary")

// Provider sends one prompt to a completion API.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options tune the guard around a provider.
type Options struct {
	// Timeout bounds one Summarize call including retries.
	Timeout time.Duration
	// RequestsPerSecond of zero or less disables rate limiting.
	RequestsPerSecond float64
	Retry             retry.Config
	Breaker           circuitbreaker.Config
}

// DefaultOptions returns the options used for provider name.
func DefaultOptions(name string) Options {
	return Options{
		Timeout:           60 * time.Second,
		RequestsPerSecond: 1,
		Retry:             retry.SummarizerConfig(),
		Breaker:           circuitbreaker.SummarizerConfig(name),
	}
}

// Summarizer guards a Provider.
type Summarizer struct {
	provider Provider
	breaker  *circuitbreaker.CircuitBreaker
	limiter  *rate.Limiter
	retry    retry.Config
	timeout  time.Duration
}

// New wraps p with the given options.
func New(p Provider, opts Options) *Summarizer {
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if opts.Breaker.Name == "" {
		opts.Breaker = circuitbreaker.SummarizerConfig(p.Name())
	}
	if opts.Breaker.IsSuccessful == nil {
		opts.Breaker.IsSuccessful = countsAsSuccess
	}
	return &Summarizer{
		provider: p,
		breaker:  circuitbreaker.New(opts.Breaker),
		limiter:  rate.NewLimiter(limit, 1),
		retry:    opts.Retry,
		timeout:  opts.Timeout,
	}
}

// Name returns the provider name.
func (s *Summarizer) Name() string { return s.provider.Name() }

// Summarize asks the provider for a summary of an article. Errors are
// returned as is; callers decide on a fallback.
func (s *Summarizer) Summarize(ctx context.Context, title, body string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	body, cut := text.Truncate(body, MaxInputRunes)
	if cut {
		slog.WarnContext(ctx, "article text truncated for summarization",
			slog.String("provider", s.provider.Name()),
			slog.Int("limit", MaxInputRunes))
	}
	prompt := BuildPrompt(title, body)

	var summary string
	err := retry.WithBackoff(ctx, s.retry, func(ctx context.Context) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}
		out, err := circuitbreaker.Do(s.breaker, func() (string, error) {
			return s.provider.Complete(ctx, prompt)
		})
		if err != nil {
			if circuitbreaker.IsRejected(err) {
				return retry.Permanent(fmt.Errorf("%s unavailable: %w", s.provider.Name(), err))
			}
			return err
		}
		summary = strings.TrimSpace(out)
		if summary == "" {
			return retry.Permanent(ErrEmptyResponse)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%s summarize: %w", s.provider.Name(), err)
	}
	return summary, nil
}

// countsAsSuccess keeps client-side errors out of the breaker's failure ratio.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrDisabled) {
		return true
	}
	var he *retry.HTTPError
	if errors.As(err, &he) {
		return !he.Temporary() && he.StatusCode < 500 && he.StatusCode != 401 && he.StatusCode != 403
	}
	return false
}

// BuildPrompt renders the fixed summarization prompt.
func BuildPrompt(title, body string) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\nArticle title: ")
	b.WriteString(title)
	b.WriteString("\nArticle: ")
	b.WriteString(body)
	return b.String()
}

const promptHeader = `Please provide a concise summary of the following article. Your summary should:

1. Capture the main argument or central thesis
2. Include the most important supporting points and evidence
3. Maintain the original tone and perspective
4. Be approximately 5-7 sentences long
5. Use clear, accessible language

Focus on what a reader would need to know to understand the article's core message and key takeaways. Avoid including minor details, examples used solely for illustration, or tangential information.`
