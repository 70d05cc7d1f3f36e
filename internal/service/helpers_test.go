package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabsverse/tabsverse-server/internal/blob"
	"github.com/tabsverse/tabsverse-server/internal/domain"
	domainerrors "github.com/tabsverse/tabsverse-server/internal/errors"
	"github.com/tabsverse/tabsverse-server/internal/logger"
	"github.com/tabsverse/tabsverse-server/internal/media/images"
	"github.com/tabsverse/tabsverse-server/internal/store"
	"github.com/tabsverse/tabsverse-server/internal/store/sqlite"
)

const testBlobBase = "http://localhost:8080/objects"

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() }) //nolint:errcheck // Test cleanup
	return s
}

// spyBlobs records every Put and Delete in call order and can be told to fail.
type spyBlobs struct {
	*blob.Local

	mu        sync.Mutex
	calls     []string
	putErr    error
	deleteErr error
}

func newSpyBlobs(t *testing.T) *spyBlobs {
	t.Helper()
	local, err := blob.NewLocal(t.TempDir(), testBlobBase)
	require.NoError(t, err)
	return &spyBlobs{Local: local}
}

func (s *spyBlobs) Put(ctx context.Context, path string, data []byte, contentType string) error {
	s.record("put:" + path)
	if s.putErr != nil {
		return s.putErr
	}
	return s.Local.Put(ctx, path, data, contentType)
}

func (s *spyBlobs) Delete(ctx context.Context, paths ...string) error {
	for _, p := range paths {
		s.record("delete:" + p)
	}
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.Local.Delete(ctx, paths...)
}

func (s *spyBlobs) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *spyBlobs) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// failingCovers wraps a store and fails every UpdateCover.
type failingCovers struct {
	store.Store
	err error
}

func (f *failingCovers) UpdateCover(context.Context, string, domain.CoverUpdate) (*domain.Curation, error) {
	return nil, f.err
}

func newTestCompressor() *images.Compressor {
	return images.NewCompressor(images.DefaultOptions(), logger.Discard())
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func createCuration(t *testing.T, s store.CurationStore, ownerID string, mutate ...func(*domain.Curation)) *domain.Curation {
	t.Helper()
	c := &domain.Curation{
		OwnerID:    ownerID,
		Title:      "Reading list",
		Visibility: domain.VisibilityPublic,
		Tags:       []string{},
	}
	for _, m := range mutate {
		m(c)
	}
	require.NoError(t, s.CreateCuration(context.Background(), c))
	return c
}

func strPtr(s string) *string { return &s }

// requireCode fails unless err is non-nil and carries code.
func requireCode(t *testing.T, err error, code domainerrors.Code, msgAndArgs ...any) {
	t.Helper()
	require.Error(t, err, msgAndArgs...)
	require.Equal(t, code, domainerrors.CodeOf(err), msgAndArgs...)
}
