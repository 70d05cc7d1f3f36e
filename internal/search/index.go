package search

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// SearchIndex wraps a Bleve index of public curations.
//
// All public methods are safe for concurrent use. The mutex is held
// exclusively only while Rebuild swaps the underlying index.
type SearchIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	// DataPath is the directory holding the index. Empty creates an
	// in-memory index.
	DataPath string
	Logger   *slog.Logger
}

// mappingVersion is bumped whenever buildIndexMapping changes, which forces
// a rebuild on the next start.
const mappingVersion = "tabsverse-1"

// NewSearchIndex opens the index under opts.DataPath, recreating it when it
// is unreadable or was built with an older mapping.
func NewSearchIndex(opts Options) (*SearchIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if opts.DataPath == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create memory index: %w", err)
		}
		return &SearchIndex{index: index, logger: logger}, nil
	}

	if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	indexPath := filepath.Join(opts.DataPath, "curations.bleve")
	versionPath := filepath.Join(opts.DataPath, "curations.version")

	index, err := openExisting(indexPath, versionPath, logger)
	if err != nil {
		return nil, err
	}

	if index == nil {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("failed to write search version file", "error", err)
		}
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &SearchIndex{index: index, path: indexPath, logger: logger}, nil
}

// openExisting returns nil without error when there is no usable index.
// A stale or corrupt index is removed.
func openExisting(indexPath, versionPath string, logger *slog.Logger) (bleve.Index, error) {
	if _, err := os.Stat(indexPath); err != nil {
		return nil, nil
	}

	version, err := os.ReadFile(versionPath)
	switch {
	case err != nil:
		logger.Info("search index has no version file, rebuilding", "new_version", mappingVersion)
	case string(version) != mappingVersion:
		logger.Info("search index mapping version changed, rebuilding",
			"old_version", string(version),
			"new_version", mappingVersion,
		)
	default:
		index, openErr := bleve.Open(indexPath)
		if openErr == nil {
			return index, nil
		}
		logger.Warn("failed to open existing index, recreating", "path", indexPath, "error", openErr)
	}

	if err := os.RemoveAll(indexPath); err != nil {
		return nil, fmt.Errorf("remove old index: %w", err)
	}
	return nil, nil
}

// Close closes the index and releases resources.
func (s *SearchIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexCuration adds or replaces one document.
func (s *SearchIndex) IndexCuration(doc *CurationDocument) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(doc.ID, doc.ToMap())
}

// IndexCurations indexes documents in batches of 500.
func (s *SearchIndex) IndexCurations(docs []*CurationDocument) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500

	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))

		batch := s.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// DeleteCuration removes a document. Deleting an unknown ID is not an error.
func (s *SearchIndex) DeleteCuration(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(id)
}

// DocumentCount returns the number of indexed curations.
func (s *SearchIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops every document and starts from an empty index. It blocks
// all other operations while it runs.
func (s *SearchIndex) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	var (
		index bleve.Index
		err   error
	)
	if s.path == "" {
		index, err = bleve.NewMemOnly(buildIndexMapping())
	} else {
		if err := os.RemoveAll(s.path); err != nil {
			return fmt.Errorf("remove index: %w", err)
		}
		index, err = bleve.New(s.path, buildIndexMapping())
	}
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = index
	s.logger.Info("rebuilt search index", "path", s.path)
	return nil
}
