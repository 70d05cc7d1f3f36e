package store

import (
	"encoding/base64"
	"fmt"
	"strconv"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// PaginationParams contains pagination request parameters.
type PaginationParams struct {
	Limit  int    // Items per page (defaults to 50, capped at 200)
	Cursor string // Opaque cursor for the next page (empty for first page)
}

// PaginatedResult contains paginated data and metadata.
type PaginatedResult[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// Validate clamps the limit into range.
func (p *PaginationParams) Validate() {
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
}

// Offset decodes the cursor into a row offset.
func (p PaginationParams) Offset() (int, error) {
	if p.Cursor == "" {
		return 0, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(p.Cursor)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor: %w", err)
	}
	offset, err := strconv.Atoi(string(decoded))
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("invalid cursor %q", p.Cursor)
	}
	return offset, nil
}

// EncodeCursor creates an opaque cursor for a row offset.
func EncodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

// Paginate builds a result from a page fetched with one extra row
// (Limit+1) so HasMore can be decided without a count query.
func Paginate[T any](items []T, params PaginationParams, offset int) *PaginatedResult[T] {
	result := &PaginatedResult[T]{Items: items}
	if len(items) > params.Limit {
		result.Items = items[:params.Limit]
		result.HasMore = true
		result.NextCursor = EncodeCursor(offset + params.Limit)
	}
	if result.Items == nil {
		result.Items = []T{}
	}
	return result
}
