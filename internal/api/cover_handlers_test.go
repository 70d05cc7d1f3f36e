package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabsverse/tabsverse-server/internal/baas"
	"github.com/tabsverse/tabsverse-server/internal/config"
	"github.com/tabsverse/tabsverse-server/internal/domain"
	"github.com/tabsverse/tabsverse-server/internal/id"
	"github.com/tabsverse/tabsverse-server/internal/service"
)

// upload sends a multipart request through the full router.
func (ts *testServer) upload(t *testing.T, method, path, authHeader string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartFile(t, "cover.png", data)
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", contentType)
	if authHeader != "" {
		req.Header.Set("Authorization", strings.TrimPrefix(authHeader, "Authorization: "))
	}
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)
	return w
}

func TestReplaceCover(t *testing.T) {
	ts := setupTestServer(t)
	c := ts.createCuration(t, "owner", map[string]any{"title": "Covered"})
	token := ts.auth(t, "owner")

	resp := ts.upload(t, http.MethodPut, "/api/v1/curations/"+c.ID+"/cover", token, pngImage(t, 900, 600))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var first service.ReplaceResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &first))
	require.NotNil(t, first.Curation.CoverImageURL)
	assert.True(t, strings.HasPrefix(first.Upload.Path, id.CoverPrefix+c.ID+"-"), first.Upload.Path)
	assert.Equal(t, testFilesBase+"/"+first.Upload.Path, *first.Curation.CoverImageURL)
	assert.Equal(t, 600, first.Upload.Stats.Width)
	assert.NotEmpty(t, first.Upload.BlurHash)
	assert.True(t, ts.files.Exists(first.Upload.Path))

	// The stored object is served from the files prefix.
	get := httptest.NewRequest(http.MethodGet, "/files/"+first.Upload.Path, nil)
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, get)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte{0xFF, 0xD8, 0xFF}))

	// Replacing deletes the previous object.
	resp = ts.upload(t, http.MethodPut, "/api/v1/curations/"+c.ID+"/cover", token, pngImage(t, 300, 300))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var second service.ReplaceResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &second))
	assert.NotEqual(t, first.Upload.Path, second.Upload.Path)
	assert.False(t, ts.files.Exists(first.Upload.Path))
	assert.True(t, ts.files.Exists(second.Upload.Path))

	// Remove clears the reference and the object.
	del := ts.api.Delete("/api/v1/curations/"+c.ID+"/cover", token)
	require.Equal(t, http.StatusOK, del.Code, del.Body.String())
	var cleared domain.Curation
	require.NoError(t, json.Unmarshal(del.Body.Bytes(), &cleared))
	assert.Nil(t, cleared.CoverImageURL)
	assert.False(t, ts.files.Exists(second.Upload.Path))
}

func TestReplaceCover_Errors(t *testing.T) {
	ts := setupTestServer(t)
	c := ts.createCuration(t, "owner", map[string]any{"title": "Covered"})
	img := pngImage(t, 64, 64)

	tests := []struct {
		name       string
		path       string
		auth       string
		data       []byte
		wantStatus int
		wantCode   string
	}{
		{"anonymous", "/api/v1/curations/" + c.ID + "/cover", "", img, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"not owner", "/api/v1/curations/" + c.ID + "/cover", ts.auth(t, "intruder"), img, http.StatusForbidden, "FORBIDDEN"},
		{"not an image", "/api/v1/curations/" + c.ID + "/cover", ts.auth(t, "owner"), []byte("plain text, not pixels"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"missing curation", "/api/v1/curations/missing/cover", ts.auth(t, "owner"), img, http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.upload(t, http.MethodPut, tt.path, tt.auth, tt.data)
			require.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			assert.Equal(t, tt.wantCode, decodeError(t, resp).Code)
		})
	}

	objects, err := ts.files.List(t.Context(), id.CoverPrefix)
	require.NoError(t, err)
	assert.Empty(t, objects, "rejected uploads store nothing")
}

func TestReplaceCover_TooLarge(t *testing.T) {
	ts := setupTestServer(t, func(cfg *config.Config) {
		cfg.Images.MaxUploadBytes = 1 << 10
	})
	c := ts.createCuration(t, "owner", map[string]any{"title": "Covered"})

	resp := ts.upload(t, http.MethodPut, "/api/v1/curations/"+c.ID+"/cover", ts.auth(t, "owner"), pngImage(t, 400, 400))
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, resp).Code)
}

func TestReplaceCover_MissingFileField(t *testing.T) {
	ts := setupTestServer(t)
	c := ts.createCuration(t, "owner", map[string]any{"title": "Covered"})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/curations/"+c.ID+"/cover", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ts.sign(t, "owner", baas.RoleAuthenticated))
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, w).Code)
}

func TestUploadCover_ThenCreateCuration(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.upload(t, http.MethodPost, "/api/v1/covers", ts.auth(t, "owner"), pngImage(t, 200, 400))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var uploaded service.UploadResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &uploaded))
	assert.Regexp(t, `^curation-covers/\d{13}-[0-9a-z]{10}\.jpg$`, uploaded.Path)
	assert.True(t, ts.files.Exists(uploaded.Path))

	c := ts.createCuration(t, "owner", map[string]any{"title": "With cover", "cover_path": uploaded.Path})
	require.NotNil(t, c.CoverImageURL)
	assert.Equal(t, uploaded.URL, *c.CoverImageURL)

	resp = ts.upload(t, http.MethodPost, "/api/v1/covers", "", pngImage(t, 10, 10))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestServeFile_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	for _, path := range []string{"/files/curation-covers/missing.jpg", "/files/../secret"} {
		w := httptest.NewRecorder()
		ts.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}
