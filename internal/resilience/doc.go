// Package resilience groups the fault-tolerance helpers used around calls to
// summarization providers, object storage and startup dependencies.
//
//   - circuitbreaker: stops calling a provider that keeps failing
//   - retry: exponential backoff with jitter for transient failures
//
// Usage:
//
//	cb := circuitbreaker.New(circuitbreaker.SummarizerConfig("openai"))
//	err := retry.WithBackoff(ctx, retry.SummarizerConfig(), func(ctx context.Context) error {
//	    _, err := circuitbreaker.Do(cb, func() (string, error) { return call(ctx) })
//	    return err
//	})
package resilience
