package id

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for range count {
		id, err := Generate("tab")
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	id, err := Generate("tab")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(id, "tab-"))
	assert.Len(t, id, len("tab")+1+21)
}

func TestMustGenerate_Format(t *testing.T) {
	id := MustGenerate("like")
	assert.True(t, strings.HasPrefix(id, "like-"))
}

func TestNewUUID(t *testing.T) {
	u := NewUUID()
	assert.True(t, IsUUID(u))
	assert.False(t, IsUUID("not-a-uuid"))
}

func TestCoverPath(t *testing.T) {
	pattern := regexp.MustCompile(`^curation-covers/[^/]+-[0-9a-z]{10}\.jpg$`)

	t.Run("uses curation id", func(t *testing.T) {
		path, err := CoverPath("c0ffee", time.Now())
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(path, "curation-covers/c0ffee-"))
		assert.Regexp(t, pattern, path)
	})

	t.Run("falls back to timestamp", func(t *testing.T) {
		now := time.UnixMilli(1700000000123)
		path, err := CoverPath("", now)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(path, "curation-covers/1700000000123-"))
		assert.Regexp(t, pattern, path)
	})

	t.Run("unique per call", func(t *testing.T) {
		a, err := CoverPath("c1", time.Now())
		require.NoError(t, err)
		b, err := CoverPath("c1", time.Now())
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func BenchmarkGenerate(b *testing.B) {
	for b.Loop() {
		_, _ = Generate("bench")
	}
}
