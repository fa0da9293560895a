package pathutil

import (
	"regexp"
	"strings"
)

// PathPattern represents a regex pattern and its corresponding normalized template.
type PathPattern struct {
	Pattern  *regexp.Regexp
	Template string
}

const uuidRe = `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`

// pathPatterns defines the list of patterns for dynamic routes.
// Patterns are evaluated in order from most specific to least specific.
var pathPatterns = []*PathPattern{
	// Articles
	{Pattern: regexp.MustCompile(`^/articles/` + uuidRe + `$`), Template: "/articles/:id"},
	{Pattern: regexp.MustCompile(`^/articles/` + uuidRe + `/(publish|archive|summarize)$`), Template: "/articles/:id/$1"},
	{Pattern: regexp.MustCompile(`^/articles/content/` + uuidRe + `$`), Template: "/articles/content/:id"},
	{Pattern: regexp.MustCompile(`^/articles/users/` + uuidRe + `$`), Template: "/articles/users/:userId"},
	{Pattern: regexp.MustCompile(`^/articles/slug/[^/]+$`), Template: "/articles/slug/:slug"},

	// Tags
	{Pattern: regexp.MustCompile(`^/tags/` + uuidRe + `$`), Template: "/tags/:id"},
	{Pattern: regexp.MustCompile(`^/tags/slug/[^/]+$`), Template: "/tags/slug/:slug"},
	{Pattern: regexp.MustCompile(`^/tags/articles/` + uuidRe + `$`), Template: "/tags/articles/:articleId"},
	{Pattern: regexp.MustCompile(`^/tags/articles/` + uuidRe + `/` + uuidRe + `$`), Template: "/tags/articles/:articleId/:tagId"},

	// Assets
	{Pattern: regexp.MustCompile(`^/assets/` + uuidRe + `$`), Template: "/assets/:id"},
}

// NormalizePath normalizes dynamic URL paths to prevent metrics label cardinality explosion.
// It converts paths with ids or slugs (e.g., /articles/<uuid>) to template format
// (e.g., /articles/:id). Static paths and search endpoints remain unchanged.
//
// Examples:
//
//	NormalizePath("/articles/0b5c3c1e-8f5a-4c55-9d0c-2f1f3f0c9a11")         // "/articles/:id"
//	NormalizePath("/articles/0b5c3c1e-8f5a-4c55-9d0c-2f1f3f0c9a11/publish") // "/articles/:id/publish"
//	NormalizePath("/articles/slug/hello-world")                            // "/articles/slug/:slug"
//	NormalizePath("/articles/search?q=go")                                 // "/articles/search"
//	NormalizePath("/health")                                               // "/health"
func NormalizePath(path string) string {
	// Strip query parameters if present
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}

	// Strip trailing slash if present (except for root path)
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	for _, p := range pathPatterns {
		if m := p.Pattern.FindStringSubmatchIndex(path); m != nil {
			return string(p.Pattern.ExpandString(nil, p.Template, path, m))
		}
	}

	// static paths like /health, /metrics, /credentials/login pass through
	return path
}
