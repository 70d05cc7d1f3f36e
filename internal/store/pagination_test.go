package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginationParams_Validate(t *testing.T) {
	tests := []struct {
		name          string
		input         PaginationParams
		expectedLimit int
	}{
		{"valid", PaginationParams{Limit: 20}, 20},
		{"zero defaults", PaginationParams{Limit: 0}, 50},
		{"negative defaults", PaginationParams{Limit: -3}, 50},
		{"capped", PaginationParams{Limit: 5000}, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.input
			p.Validate()
			assert.Equal(t, tt.expectedLimit, p.Limit)
		})
	}
}

func TestCursorRoundTrip(t *testing.T) {
	offset, err := PaginationParams{Cursor: EncodeCursor(150)}.Offset()
	require.NoError(t, err)
	assert.Equal(t, 150, offset)

	offset, err = PaginationParams{}.Offset()
	require.NoError(t, err)
	assert.Zero(t, offset)

	_, err = PaginationParams{Cursor: "!!"}.Offset()
	assert.Error(t, err)
}

func TestPaginate(t *testing.T) {
	params := PaginationParams{Limit: 2}

	page := Paginate([]int{1, 2, 3}, params, 4)
	assert.Equal(t, []int{1, 2}, page.Items)
	assert.True(t, page.HasMore)
	next, err := PaginationParams{Cursor: page.NextCursor}.Offset()
	require.NoError(t, err)
	assert.Equal(t, 6, next)

	last := Paginate([]int{9}, params, 6)
	assert.False(t, last.HasMore)
	assert.Empty(t, last.NextCursor)

	empty := Paginate[int](nil, params, 0)
	assert.NotNil(t, empty.Items)
}
