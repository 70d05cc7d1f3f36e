package baas

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tabsverse/tabsverse-server/internal/blob"
)

const (
	storagePrefix = "/storage/v1/object/"

	// Page size for the list endpoint.
	listPageSize = 1000
)

// Storage is a blob.Store on a BaaS storage bucket with public reads.
type Storage struct {
	client *Client
	bucket string
}

var _ blob.Store = (*Storage)(nil)

// NewStorage returns a store for bucket.
func NewStorage(client *Client, bucket string) *Storage {
	return &Storage{client: client, bucket: bucket}
}

// Put uploads data. Paths are fresh by construction, so upsert is off and an
// existing object yields blob.ErrExists.
func (s *Storage) Put(ctx context.Context, path string, data []byte, contentType string) error {
	if err := blob.ValidatePath(path); err != nil {
		return err
	}
	_, err := s.client.do(ctx, request{
		op:          "upload object",
		method:      http.MethodPost,
		path:        storagePrefix + s.bucket + "/" + escapePath(path),
		raw:         data,
		contentType: contentType,
		headers: map[string]string{
			"x-upsert":      "false",
			"cache-control": "3600",
		},
	})
	if errors.Is(err, ErrConflict) {
		return fmt.Errorf("%w: %w", blob.ErrExists, err)
	}
	return err
}

// Delete removes objects in a single batched request. Missing objects are
// ignored by the server.
func (s *Storage) Delete(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	for _, p := range paths {
		if err := blob.ValidatePath(p); err != nil {
			return err
		}
	}
	_, err := s.client.do(ctx, request{
		op:     "delete objects",
		method: http.MethodDelete,
		path:   storagePrefix + s.bucket,
		body:   map[string][]string{"prefixes": paths},
	})
	return err
}

type listRequest struct {
	Prefix string     `json:"prefix"`
	Search string     `json:"search,omitempty"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
	SortBy listSortBy `json:"sortBy"`
}

type listSortBy struct {
	Column string `json:"column"`
	Order  string `json:"order"`
}

type listEntry struct {
	ID        *string   `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
	Metadata  *struct {
		Size int64 `json:"size"`
	} `json:"metadata"`
}

// List pages through the folder containing prefix. The storage API lists
// one folder level at a time; sub-folders (entries without an id) are
// skipped.
func (s *Storage) List(ctx context.Context, prefix string) ([]blob.Object, error) {
	folder, search := "", prefix
	if i := strings.LastIndex(prefix, "/"); i >= 0 {
		folder, search = prefix[:i], prefix[i+1:]
	}

	var objects []blob.Object
	for offset := 0; ; offset += listPageSize {
		var page []listEntry
		err := s.client.postJSON(ctx, "list objects", storagePrefix+"list/"+s.bucket, listRequest{
			Prefix: folder,
			Search: search,
			Limit:  listPageSize,
			Offset: offset,
			SortBy: listSortBy{Column: "name", Order: "asc"},
		}, &page)
		if err != nil {
			return nil, err
		}

		for _, e := range page {
			if e.ID == nil || !strings.HasPrefix(e.Name, search) {
				continue
			}
			obj := blob.Object{Path: e.Name, UpdatedAt: e.UpdatedAt}
			if folder != "" {
				obj.Path = folder + "/" + e.Name
			}
			if e.Metadata != nil {
				obj.Size = e.Metadata.Size
			}
			objects = append(objects, obj)
		}

		if len(page) < listPageSize {
			return objects, nil
		}
	}
}

// PublicURL returns the public object URL.
func (s *Storage) PublicURL(path string) string {
	return s.publicBase() + "/" + escapePath(path)
}

// PathFromURL inverts PublicURL.
func (s *Storage) PathFromURL(raw string) (string, bool) {
	p, ok := blob.PublicPathFromURL(s.publicBase(), raw)
	if !ok {
		return "", false
	}
	unescaped, err := url.PathUnescape(p)
	if err != nil {
		return "", false
	}
	return unescaped, true
}

func (s *Storage) publicBase() string {
	return s.client.baseURL + storagePrefix + "public/" + s.bucket
}

func escapePath(path string) string {
	return (&url.URL{Path: path}).EscapedPath()
}
