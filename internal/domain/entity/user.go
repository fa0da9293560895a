package entity

import (
	"strings"
	"time"
)

// User is a registered account. Email is the immutable identity key.
type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
}

// Name returns the display name, falling back to the email address.
func (u *User) Name() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Credential is the password record paired one-to-one with a user.
// PasswordHash is also part of the user's token signing secret.
type Credential struct {
	UserID       string
	PasswordHash string
	UpdatedAt    time.Time
}
