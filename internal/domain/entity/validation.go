package entity

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"knowledgebase/internal/utils/text"
)

const (
	maxEmailLength       = 254
	MinPasswordLength    = 8
	maxPasswordLength    = 72 // bcrypt ignores input beyond 72 bytes
	MaxTitleLength       = 255
	MaxTagNameLength     = 50
	MaxTagDescriptionLen = 200
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ValidateEmail checks that email is present and well-formed.
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return &ValidationError{Field: "email", Message: "email is required"}
	}
	if len(email) > maxEmailLength {
		return &ValidationError{Field: "email", Message: fmt.Sprintf("email must not exceed %d characters", maxEmailLength)}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &ValidationError{Field: "email", Message: "email must be a valid address"}
	}
	return nil
}

// ValidatePassword enforces the password length policy.
func ValidatePassword(field, password string) error {
	if len(password) < MinPasswordLength {
		return &ValidationError{Field: field, Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength)}
	}
	if len(password) > maxPasswordLength {
		return &ValidationError{Field: field, Message: fmt.Sprintf("password must not exceed %d bytes", maxPasswordLength)}
	}
	return nil
}

// ValidateTitle checks an article title.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if text.CountRunes(title) > MaxTitleLength {
		return &ValidationError{Field: "title", Message: fmt.Sprintf("title must not exceed %d characters", MaxTitleLength)}
	}
	return nil
}

// ValidateTag checks the user-supplied tag fields. description and color may be nil.
func ValidateTag(name string, description, color *string) error {
	var errs ValidationErrors
	n := text.CountRunes(strings.TrimSpace(name))
	if n == 0 {
		errs.Add("name", "name is required")
	} else if n > MaxTagNameLength {
		errs.Add("name", fmt.Sprintf("name must be between 1 and %d characters", MaxTagNameLength))
	}
	if description != nil && text.CountRunes(*description) > MaxTagDescriptionLen {
		errs.Add("description", fmt.Sprintf("description must not exceed %d characters", MaxTagDescriptionLen))
	}
	if color != nil && *color != "" && !colorPattern.MatchString(*color) {
		errs.Add("color", "color must be a valid hex color code")
	}
	return errs.ErrOrNil()
}
