package pathutil

import (
	"net/http"

	"github.com/google/uuid"

	"knowledgebase/internal/domain/entity"
)

// ID reads the path wildcard name from r and checks that it is a UUID.
// The canonical lowercase form is returned; anything else is a validation
// error on the wildcard's name.
//
// Example:
//
//	// mux.Handle("GET /articles/{id}", h)
//	id, err := ID(r, "id")
func ID(r *http.Request, name string) (string, error) {
	return ParseUUID(name, r.PathValue(name))
}

// ParseUUID checks that raw is a UUID in its 36 character form. Failures are
// validation errors on name.
func ParseUUID(name, raw string) (string, error) {
	if raw == "" {
		return "", &entity.ValidationError{Field: name, Message: name + " is required"}
	}
	id, err := uuid.Parse(raw)
	if err != nil || len(raw) != 36 {
		return "", &entity.ValidationError{Field: name, Message: name + " must be a valid UUID"}
	}
	return id.String(), nil
}
