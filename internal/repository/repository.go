// Package repository declares the persistence ports used by the use case layer.
// Implementations live under internal/infra/adapter/persistence.
//
// Get-style methods return (nil, nil) when the row does not exist; callers
// translate that into a domain not-found error.
package repository

import (
	"context"
	"errors"
)

// Transactor runs fn inside a single database transaction. Repository calls
// made with the ctx passed to fn join that transaction. Returning an error
// from fn rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Unique-constraint violations reported by the adapters. Use cases turn these
// into conflict errors or, for slugs, retry with a fresh candidate.
var (
	ErrDuplicateSlug  = errors.New("duplicate slug")
	ErrDuplicateName  = errors.New("duplicate name")
	ErrDuplicateEmail = errors.New("duplicate email")
)
