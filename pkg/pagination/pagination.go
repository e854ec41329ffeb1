package pagination

import (
	"fmt"
	"strings"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 10
	// MaxLimit caps how many rows any page can request.
	MaxLimit = 100
)

// Params holds page/limit inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Normalize clamps page to >= 1 and limit to [1, MaxLimit].
func (p Params) Normalize() Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	p.Limit = NormalizeLimit(p.Limit)
	return p
}

// Offset returns the row offset for the normalized params.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Meta is the pagination block returned alongside list payloads.
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// Page is the `{data, pagination}` list payload.
type Page[T any] struct {
	Data       []T  `json:"data"`
	Pagination Meta `json:"pagination"`
}

// NewPage assembles a page from the rows and the unpaginated total.
func NewPage[T any](rows []T, total int64, params Params) Page[T] {
	n := params.Normalize()
	if rows == nil {
		rows = []T{}
	}
	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(n.Limit) - 1) / int64(n.Limit))
	}
	return Page[T]{
		Data: rows,
		Pagination: Meta{
			Total:      total,
			Page:       n.Page,
			Limit:      n.Limit,
			TotalPages: totalPages,
		},
	}
}

// Sort captures a validated ORDER BY column/direction pair.
type Sort struct {
	Column    string
	Direction string
}

// Clause renders the ORDER BY fragment.
func (s Sort) Clause() string {
	return fmt.Sprintf("%s %s", s.Column, s.Direction)
}

// ResolveSort maps a public sort field onto a whitelisted column. Unknown fields
// are rejected so callers never interpolate raw input into SQL.
func ResolveSort(field, order string, allowed map[string]string, fallback Sort) (Sort, error) {
	field = strings.TrimSpace(strings.ToLower(field))
	order = strings.TrimSpace(strings.ToLower(order))

	sort := fallback
	if field != "" {
		column, ok := allowed[field]
		if !ok {
			return Sort{}, fmt.Errorf("unsupported sort field %q", field)
		}
		sort.Column = column
	}
	switch order {
	case "":
	case "asc":
		sort.Direction = "ASC"
	case "desc":
		sort.Direction = "DESC"
	default:
		return Sort{}, fmt.Errorf("unsupported sort order %q", order)
	}
	if sort.Direction == "" {
		sort.Direction = "DESC"
	}
	return sort, nil
}
