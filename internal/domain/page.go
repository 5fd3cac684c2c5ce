package domain

import "context"

// Page is the response of one (offset, limit) request against a paginated source.
// Total is the size of the whole collection at the time of the request.
type Page[T any] struct {
	Total int
	Items []T
}

// FetchFunc loads the items in [offset, offset+limit). A non-nil error means
// the request failed; a short Items slice means the collection ended early.
type FetchFunc[T any] func(ctx context.Context, offset, limit int) (Page[T], error)

// ErrorHandler reports a fetch failure to the user.
type ErrorHandler func(title, message string)

// Filter is the query sent with every fetch. The zero value lists everything.
type Filter struct {
	Query string
	Sort  string
}

// Clone returns a copy that is safe to keep after the caller mutates f.
func (f Filter) Clone() Filter {
	return f
}

// IsEmpty reports whether the filter selects the whole collection.
func (f Filter) IsEmpty() bool {
	return f.Query == "" && f.Sort == ""
}
