// Package slug derives URL-safe identifiers from titles and makes them unique
// against a caller-supplied existence probe.
package slug

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Fallback is used when a title contains no usable characters.
const Fallback = "untitled"

var (
	disallowed = regexp.MustCompile(`[^a-z0-9 -]`)
	whitespace = regexp.MustCompile(`\s+`)
	dashes     = regexp.MustCompile(`-+`)
)

// ErrExhausted is returned when every candidate the budget allows is taken.
var ErrExhausted = errors.New("slug: no free candidate within attempt budget")

// Generate converts a title into a slug: lowercase, only [a-z0-9 -] kept,
// whitespace runs become a single dash, dash runs collapse, and leading or
// trailing dashes are trimmed. Generate(Generate(x)) == Generate(x).
//
//	Generate("Hello, World!") // "hello-world"
//	Generate("  --Foo--  ")   // "foo"
func Generate(title string) string {
	s := strings.ToLower(title)
	s = disallowed.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = dashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// FromTitle is Generate with the Fallback applied to an empty result.
func FromTitle(title string) string {
	if s := Generate(title); s != "" {
		return s
	}
	return Fallback
}

// ProbeFunc reports whether candidate is already in use. Implementations that
// serve updates exclude the row being updated themselves.
type ProbeFunc func(ctx context.Context, candidate string) (bool, error)

// Options bounds the search performed by Ensure.
type Options struct {
	// MaxAttempts is the number of numeric suffixes (-1, -2, ...) tried after the base.
	MaxAttempts int
	// MaxRandomAttempts is the number of random suffixes tried once the numeric budget is spent.
	MaxRandomAttempts int
	// RandomSuffix overrides the random suffix source; used by tests.
	RandomSuffix func(n int) string
}

// DefaultOptions returns the production search budget.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:       50,
		MaxRandomAttempts: 5,
	}
}

// Ensure returns the first free candidate among base, base-1, base-2, ...
// The numeric counter only increases, so a suffix that is already present is
// never handed out. When MaxAttempts numeric suffixes are all taken, Ensure
// switches to random hex suffixes that grow longer on every attempt.
func Ensure(ctx context.Context, base string, exists ProbeFunc, opts Options) (string, error) {
	if base == "" {
		base = Fallback
	}
	if opts.RandomSuffix == nil {
		opts.RandomSuffix = randomHex
	}

	for i := 0; i <= opts.MaxAttempts; i++ {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("probe slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}

	for i := 0; i < opts.MaxRandomAttempts; i++ {
		candidate := base + "-" + opts.RandomSuffix(6+2*i)
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("probe slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", ErrExhausted
}

// randomHex returns n lowercase hex characters.
func randomHex(n int) string {
	b := make([]byte, (n+1)/2)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand.Read does not fail on supported platforms
		panic(err)
	}
	return hex.EncodeToString(b)[:n]
}
