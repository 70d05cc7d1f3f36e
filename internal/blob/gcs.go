package blob

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

const gcsPublicHost = "https://storage.googleapis.com"

// GCS stores objects in a Google Cloud Storage bucket with public reads.
type GCS struct {
	client *storage.Client
	bucket string
}

var _ Store = (*GCS)(nil)

// NewGCS wraps an existing client. Credentials come from the client's
// options (GOOGLE_APPLICATION_CREDENTIALS by default).
func NewGCS(client *storage.Client, bucket string) (*GCS, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket cannot be empty")
	}
	return &GCS{client: client, bucket: bucket}, nil
}

// Put uploads data with the given content type.
func (g *GCS) Put(ctx context.Context, path string, data []byte, contentType string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}

	obj := g.client.Bucket(g.bucket).Object(path).If(storage.Conditions{DoesNotExist: true})
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=31536000, immutable"
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("write object %s: %w", path, err)
	}
	if err := wc.Close(); err != nil {
		if preconditionFailed(err) {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
		return fmt.Errorf("close object writer %s: %w", path, err)
	}
	return nil
}

// preconditionFailed reports whether err is GCS refusing a conditional write.
func preconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}

// Delete removes objects one at a time; GCS has no batch delete in the JSON
// API client. Missing objects are ignored and the first other error stops
// the loop.
func (g *GCS) Delete(ctx context.Context, paths ...string) error {
	for _, p := range paths {
		if err := ValidatePath(p); err != nil {
			return err
		}
	}
	bucket := g.client.Bucket(g.bucket)
	for _, p := range paths {
		err := bucket.Object(p).Delete(ctx)
		if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("delete object %s: %w", p, err)
		}
	}
	return nil
}

// List iterates the bucket under prefix.
func (g *GCS) List(ctx context.Context, prefix string) ([]Object, error) {
	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	var objects []Object
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		objects = append(objects, Object{Path: attrs.Name, Size: attrs.Size, UpdatedAt: attrs.Updated})
	}
	return objects, nil
}

// PublicURL returns the storage.googleapis.com URL for path.
func (g *GCS) PublicURL(path string) string {
	return fmt.Sprintf("%s/%s/%s", gcsPublicHost, g.bucket, (&url.URL{Path: path}).EscapedPath())
}

// PathFromURL inverts PublicURL.
func (g *GCS) PathFromURL(raw string) (string, bool) {
	p, ok := PublicPathFromURL(gcsPublicHost+"/"+g.bucket, raw)
	if !ok {
		return "", false
	}
	unescaped, err := url.PathUnescape(p)
	if err != nil {
		return "", false
	}
	return unescaped, true
}

// Close releases the client.
func (g *GCS) Close() error {
	return g.client.Close()
}
