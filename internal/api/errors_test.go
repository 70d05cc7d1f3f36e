package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/tabsverse/tabsverse-server/internal/errors"
)

func TestWriteError(t *testing.T) {
	RegisterErrorHandler()

	_, unauthenticated := GetUserID(context.Background())
	require.Error(t, unauthenticated)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"huma status error", unauthenticated, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"domain error", domainerrors.NotFound("curation not found"), http.StatusNotFound, "NOT_FOUND"},
		{"wrapped domain error", domainerrors.Wrap(errors.New("boom"), domainerrors.CodeUploadFailed, "upload failed"),
			http.StatusBadGateway, "UPLOAD_FAILED"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeError(w, tt.err)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
		})
	}
}

func TestUploadCover_Anonymous(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.upload(t, http.MethodPost, "/api/v1/covers", "", pngImage(t, 100, 100))
	require.Equal(t, http.StatusUnauthorized, resp.Code, resp.Body.String())
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Code)
}
