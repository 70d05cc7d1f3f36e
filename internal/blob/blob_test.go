package blob

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePath(t *testing.T) {
	valid := []string{"a.jpg", "curation-covers/x-1.jpg", "deep/nested/path.bin"}
	for _, p := range valid {
		assert.NoError(t, ValidatePath(p), p)
	}

	invalid := []string{"", "/abs.jpg", "../escape.jpg", "a/../b", "a//b", "a/./b", `a\b`, "trailing/"}
	for _, p := range invalid {
		err := ValidatePath(p)
		assert.True(t, errors.Is(err, ErrInvalidPath), "%q: %v", p, err)
	}
}

func TestPublicPathFromURL(t *testing.T) {
	base := "https://cdn.example.com/public/images"

	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://cdn.example.com/public/images/curation-covers/a.jpg", "curation-covers/a.jpg", true},
		{"https://cdn.example.com/public/images/curation-covers/a.jpg?v=2#x", "curation-covers/a.jpg", true},
		{"https://other.example.com/public/images/curation-covers/a.jpg", "", false},
		{"https://cdn.example.com/public/images/", "", false},
		{"https://cdn.example.com/public/images/../secret", "", false},
	}
	for _, tt := range tests {
		got, ok := PublicPathFromURL(base+"/", tt.url)
		assert.Equal(t, tt.wantOK, ok, tt.url)
		assert.Equal(t, tt.want, got, tt.url)
	}
}
