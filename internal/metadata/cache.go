package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tabsverse/tabsverse-server/internal/domain"
)

const cacheKeyPrefix = "meta:"

// Cache stores extraction results in Badger with a TTL.
type Cache struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger
}

// OpenCache opens a cache at path. An empty path keeps everything in memory.
func OpenCache(path string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open metadata cache: %w", err)
	}

	logger.Info("Metadata cache opened", "path", path, "ttl", ttl)
	return &Cache{db: db, ttl: ttl, logger: logger}, nil
}

// Get returns the cached result for rawURL, if present and unexpired.
func (c *Cache) Get(rawURL string) (*domain.URLMetadata, bool) {
	var m domain.URLMetadata
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(cacheKeyPrefix + rawURL))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &m)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.logger.Warn("metadata cache read failed", "url", rawURL, "error", err)
		}
		return nil, false
	}
	return &m, true
}

// Set stores m under rawURL until the TTL lapses.
func (c *Cache) Set(rawURL string, m *domain.URLMetadata) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(cacheKeyPrefix+rawURL), data)
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
}

// Delete drops the cached result for rawURL.
func (c *Cache) Delete(rawURL string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(cacheKeyPrefix + rawURL))
	})
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
