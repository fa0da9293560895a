package summarizer

import "context"

// NoOp never calls anything; every summary falls back to the excerpt.
type NoOp struct{}

// NewNoOp creates a new NoOp provider.
func NewNoOp() *NoOp { return &NoOp{} }

func (NoOp) Name() string { return "noop" }

// Complete always fails with ErrDisabled.
func (NoOp) Complete(context.Context, string) (string, error) {
	return "", ErrDisabled
}
