// Package pagination implements offset pagination shared by every list endpoint:
// query parsing, offset arithmetic and the metadata returned to clients.
package pagination

// Config holds pagination defaults and limits.
type Config struct {
	DefaultPage  int // Default page number (typically 1)
	DefaultLimit int // Default items per page
	MaxLimit     int // Maximum allowed items per page
}

// DefaultConfig returns the default configuration: page 1, 10 items, at most 100.
func DefaultConfig() Config {
	return Config{
		DefaultPage:  1,
		DefaultLimit: 10,
		MaxLimit:     100,
	}
}
