// Package blob stores cover image objects.
//
// Backends: the BaaS storage API (internal/baas), Google Cloud Storage, and
// the local filesystem. Paths are slash-separated keys such as
// "curation-covers/abc-xyz.jpg".
package blob

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors.
var (
	// ErrInvalidPath is returned for empty, absolute, or traversing paths.
	ErrInvalidPath = errors.New("invalid object path")
	// ErrExists is returned by Put when path is already taken.
	ErrExists = errors.New("object already exists")
)

// Object describes a stored object.
type Object struct {
	Path      string
	Size      int64
	UpdatedAt time.Time
}

// Store is an object store with public URLs.
type Store interface {
	// Put creates a new object at path. Objects are never overwritten: an
	// existing path yields ErrExists.
	Put(ctx context.Context, path string, data []byte, contentType string) error
	// Delete removes the given objects in one call. Missing objects are ignored.
	Delete(ctx context.Context, paths ...string) error
	// List returns every object whose path starts with prefix.
	List(ctx context.Context, prefix string) ([]Object, error)
	// PublicURL returns the URL clients use to fetch path.
	PublicURL(path string) string
	// PathFromURL inverts PublicURL. It reports false for URLs the store did
	// not produce.
	PathFromURL(url string) (string, bool)
}

// ValidatePath rejects paths that could escape the store's namespace.
func ValidatePath(path string) error {
	if path == "" || strings.HasPrefix(path, "/") || strings.Contains(path, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return nil
}

// PublicPathFromURL strips base from url, dropping any query or fragment,
// and validates the remainder.
func PublicPathFromURL(base, url string) (string, bool) {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	path, ok := strings.CutPrefix(url, strings.TrimSuffix(base, "/")+"/")
	if !ok || ValidatePath(path) != nil {
		return "", false
	}
	return path, true
}
