package pagination

// Page is one page of results together with its metadata.
type Page[T any] struct {
	Items      []T
	Pagination Metadata
}

// NewPage builds a page; a nil items slice becomes empty so it encodes as [].
func NewPage[T any](items []T, params Params, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Pagination: NewMetadata(params, total),
	}
}
