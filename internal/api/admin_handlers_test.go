package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabsverse/tabsverse-server/internal/service"
)

func TestOrphans_RequireAdmin(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/admin/orphans")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Get("/api/v1/admin/orphans", ts.auth(t, "regular-user"))
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "FORBIDDEN", decodeError(t, resp).Code)

	resp = ts.api.Get("/api/v1/admin/orphans", ts.auth(t, "admin-user"))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/admin/orphans", ts.serviceAuth(t))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestOrphans_ScanAndCleanup(t *testing.T) {
	ts := setupTestServer(t)
	ctx := t.Context()

	// One referenced cover, two stray uploads.
	c := ts.createCuration(t, "owner", map[string]any{"title": "Covered"})
	resp := ts.upload(t, http.MethodPut, "/api/v1/curations/"+c.ID+"/cover", ts.auth(t, "owner"), pngImage(t, 120, 120))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var kept service.ReplaceResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &kept))

	require.NoError(t, ts.files.Put(ctx, "curation-covers/stray-1.jpg", []byte("a"), "image/jpeg"))
	require.NoError(t, ts.files.Put(ctx, "curation-covers/stray-2.jpg", []byte("bb"), "image/jpeg"))

	resp = ts.api.Get("/api/v1/admin/orphans", ts.serviceAuth(t))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var report service.OrphanReport
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &report))
	assert.Equal(t, 3, report.Stored)
	assert.Equal(t, 1, report.Referenced)
	assert.Equal(t, []string{"curation-covers/stray-1.jpg", "curation-covers/stray-2.jpg"}, report.Orphans)
	assert.Equal(t, int64(3), report.OrphanBytes)

	// Dry run deletes nothing.
	resp = ts.api.Post("/api/v1/admin/orphans/cleanup", ts.serviceAuth(t), map[string]any{"dry_run": true})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var dry service.CleanupResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &dry))
	assert.True(t, dry.DryRun)
	assert.True(t, ts.files.Exists("curation-covers/stray-1.jpg"))

	resp = ts.api.Post("/api/v1/admin/orphans/cleanup", ts.auth(t, "admin-user"), map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var result service.CleanupResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	assert.False(t, result.DryRun)
	assert.Equal(t, []string{"curation-covers/stray-1.jpg", "curation-covers/stray-2.jpg"}, result.Deleted)
	assert.False(t, ts.files.Exists("curation-covers/stray-1.jpg"))
	assert.True(t, ts.files.Exists(kept.Upload.Path))

	// A second run finds nothing.
	resp = ts.api.Post("/api/v1/admin/orphans/cleanup", ts.serviceAuth(t), map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	assert.Empty(t, result.Deleted)
}

func TestReindexSearch(t *testing.T) {
	ts := setupTestServer(t)
	ts.createCuration(t, "owner", map[string]any{"title": "Indexed", "visibility": "public"})

	resp := ts.api.Post("/api/v1/admin/search/reindex", ts.auth(t, "owner"))
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Post("/api/v1/admin/search/reindex", ts.serviceAuth(t))
	assert.Equal(t, http.StatusNoContent, resp.Code)

	count, err := ts.services.Search.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}
