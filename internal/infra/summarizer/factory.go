package summarizer

import (
	"fmt"

	"knowledgebase/internal/config"
	"knowledgebase/internal/observability/metrics"
)

// FromConfig builds the provider selected by cfg.Type and wraps it.
func FromConfig(cfg config.SummarizerConfig) (*Summarizer, error) {
	var p Provider
	model := cfg.Model
	switch cfg.Type {
	case "openrouter", "":
		p = NewOpenRouter(cfg.OpenRouterAPIKey, cfg.OpenRouterURL, model, cfg.MaxTokens)
	case "openai":
		if model == DefaultOpenRouterModel {
			model = ""
		}
		p = NewOpenAI(cfg.OpenAIAPIKey, model, cfg.MaxTokens)
	case "claude":
		if model == DefaultOpenRouterModel {
			model = ""
		}
		p = NewClaude(cfg.AnthropicAPIKey, model, cfg.MaxTokens)
	case "noop":
		p = NewNoOp()
	default:
		return nil, fmt.Errorf("unknown summarizer type %q", cfg.Type)
	}

	opts := DefaultOptions(p.Name())
	if cfg.Timeout > 0 {
		opts.Timeout = cfg.Timeout
	}
	opts.RequestsPerSecond = cfg.RequestsPerSec
	opts.Breaker.OnStateChange = metrics.RecordCircuitState
	return New(p, opts), nil
}
