package blob

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Local stores objects on the filesystem under a root directory.
// Thread-safe for concurrent operations.
type Local struct {
	root    string
	baseURL string
	mu      sync.RWMutex // Protects file operations
}

var _ Store = (*Local)(nil)

// NewLocal creates a Local store rooted at root. Public URLs are baseURL
// followed by the object path; the API serves them from root.
func NewLocal(root, baseURL string) (*Local, error) {
	if root == "" {
		return nil, fmt.Errorf("root path cannot be empty")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}

	// Create directory if it doesn't exist.
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create object directory: %w", err)
	}

	return &Local{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Root returns the directory objects are written under.
func (l *Local) Root() string {
	return l.root
}

// Put writes data at path, creating parent directories. A taken path yields
// ErrExists.
func (l *Local) Put(_ context.Context, path string, data []byte, _ string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("object data cannot be empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	full := l.fullPath(path)
	if _, err := os.Stat(full); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to a temp file and rename so readers never see a partial object.
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to commit object: %w", err)
	}
	return nil
}

// Get reads the object at path.
func (l *Local) Get(path string) ([]byte, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	data, err := os.ReadFile(l.fullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("object not found %s: %w", path, err)
		}
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}

// Exists checks if an object exists at path.
func (l *Local) Exists(path string) bool {
	if ValidatePath(path) != nil {
		return false
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	_, err := os.Stat(l.fullPath(path))
	return err == nil
}

// Delete removes objects. Every path is validated before anything is removed.
func (l *Local) Delete(_ context.Context, paths ...string) error {
	for _, p := range paths {
		if err := ValidatePath(p); err != nil {
			return err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, p := range paths {
		if err := os.Remove(l.fullPath(p)); err != nil {
			if os.IsNotExist(err) {
				// Already deleted, not an error.
				continue
			}
			return fmt.Errorf("failed to delete object %s: %w", p, err)
		}
	}
	return nil
}

// List walks the tree and returns objects whose path starts with prefix,
// sorted by path.
func (l *Local) List(_ context.Context, prefix string) ([]Object, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var objects []Object
	err := filepath.WalkDir(l.root, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(full, ".tmp") {
			return nil
		}

		rel, err := filepath.Rel(l.root, full)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, Object{Path: key, Size: info.Size(), UpdatedAt: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Path < objects[j].Path })
	return objects, nil
}

// PublicURL returns baseURL joined with the escaped object path.
func (l *Local) PublicURL(path string) string {
	return l.baseURL + "/" + (&url.URL{Path: path}).EscapedPath()
}

// PathFromURL inverts PublicURL.
func (l *Local) PathFromURL(raw string) (string, bool) {
	p, ok := PublicPathFromURL(l.baseURL, raw)
	if !ok {
		return "", false
	}
	unescaped, err := url.PathUnescape(p)
	if err != nil {
		return "", false
	}
	return unescaped, true
}

// fullPath returns the filesystem path for an object key.
func (l *Local) fullPath(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(path))
}
