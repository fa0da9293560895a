// Package credential implements registration, login and token handling.
// Tokens are signed with the server secret concatenated with the user's
// password hash, so changing a password invalidates every token issued before.
package credential

import "knowledgebase/internal/domain/entity"

var (
	// ErrInvalidCredentials is returned for an unknown email and for a wrong
	// password alike.
	ErrInvalidCredentials = &entity.Error{Kind: entity.KindUnauthorized, Message: "invalid credentials"}

	// ErrEmailTaken indicates that a user with the email already exists.
	ErrEmailTaken = entity.Conflict("user with this email address already exists")

	// ErrUserNotFound is returned by Me when the account no longer exists.
	ErrUserNotFound = entity.NotFound("user not found")
)
