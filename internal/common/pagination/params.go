package pagination

import (
	"fmt"
	"net/http"
	"strconv"

	"knowledgebase/internal/domain/entity"
)

// Params represents the requested page.
type Params struct {
	Page  int // 1-based page number
	Limit int // Items per page
}

// ParseQueryParams reads page and limit from the query string, applying the
// configured defaults when they are absent. Malformed values are validation errors.
func ParseQueryParams(r *http.Request, config Config) (Params, error) {
	params := Params{
		Page:  config.DefaultPage,
		Limit: config.DefaultLimit,
	}

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			return params, &entity.ValidationError{Field: "page", Message: "page must be a positive integer"}
		}
		params.Page = page
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > config.MaxLimit {
			return params, &entity.ValidationError{
				Field:   "limit",
				Message: fmt.Sprintf("limit must be between 1 and %d", config.MaxLimit),
			}
		}
		params.Limit = limit
	}

	return params, nil
}

// WithDefaults fills zero values and clamps the limit. Use cases call it so
// that callers other than HTTP handlers get sane pages too.
func (p Params) WithDefaults(config Config) Params {
	if p.Page <= 0 {
		p.Page = config.DefaultPage
	}
	if p.Limit <= 0 {
		p.Limit = config.DefaultLimit
	}
	if p.Limit > config.MaxLimit {
		p.Limit = config.MaxLimit
	}
	return p
}

// Offset returns the number of rows to skip for this page.
func (p Params) Offset() int {
	return CalculateOffset(p.Page, p.Limit)
}
