package repository

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned when a refresh session is unknown, expired
// or already used.
var ErrSessionNotFound = errors.New("refresh session not found")

// SessionStore keeps the ids (jti) of live refresh tokens.
type SessionStore interface {
	Save(ctx context.Context, jti, userID string, ttl time.Duration) error
	// Consume deletes the session and returns its owner. A second call for
	// the same jti fails with ErrSessionNotFound.
	Consume(ctx context.Context, jti string) (string, error)
	Revoke(ctx context.Context, jti string) error
	// RevokeUser drops every session of userID.
	RevokeUser(ctx context.Context, userID string) error
}
