package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	domainerrors "github.com/tabsverse/tabsverse-server/internal/errors"
	"github.com/tabsverse/tabsverse-server/internal/service"
)

const (
	// multipartOverhead is allowed on top of the image for form boundaries and headers.
	multipartOverhead = 64 << 10
	// multipartMemory is held in memory before parts spill to temp files.
	multipartMemory = 8 << 20
)

func (s *Server) registerCoverRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "removeCurationCover",
		Method:      http.MethodDelete,
		Path:        "/api/v1/curations/{id}/cover",
		Summary:     "Remove cover",
		Description: "Clears the curation's cover and deletes the image",
		Tags:        []string{"Covers"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveCover)

	// Uploads are multipart, so they use chi directly.
	s.router.Put("/api/v1/curations/{id}/cover", s.handleReplaceCover)
	s.router.Post("/api/v1/covers", s.handleUploadCover)
}

// === Handlers ===

func (s *Server) handleRemoveCover(ctx context.Context, input *CurationIDInput) (*CurationOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	c, err := s.services.Covers.Remove(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}
	return &CurationOutput{Body: c}, nil
}

// handleReplaceCover replaces a curation's cover image.
// PUT /api/v1/curations/{id}/cover
// Content-Type: multipart/form-data with "file" field
func (s *Server) handleReplaceCover(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	curationID := chi.URLParam(r, "id")

	userID, err := GetUserID(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := s.readUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.services.Covers.Replace(ctx, service.ReplaceInput{
		Data:       data,
		CurationID: curationID,
		UserID:     userID,
	})
	if err != nil {
		s.logger.Warn("cover replace failed", "curation_id", curationID, "user_id", userID, "error", err)
		writeError(w, err)
		return
	}

	s.logger.Info("cover replaced", "curation_id", curationID, "result", result.Upload.String())
	writeJSON(w, http.StatusOK, result)
}

// handleUploadCover stores a cover before its curation exists. The returned
// path is passed as cover_path when the curation is created.
// POST /api/v1/covers
// Content-Type: multipart/form-data with "file" field
func (s *Server) handleUploadCover(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := GetUserID(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := s.readUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.services.Covers.Upload(ctx, service.UploadInput{Data: data})
	if err != nil {
		s.logger.Warn("cover upload failed", "user_id", userID, "error", err)
		writeError(w, err)
		return
	}

	s.logger.Info("cover uploaded", "user_id", userID, "result", result.String())
	writeJSON(w, http.StatusCreated, result)
}

// readUpload returns the "file" part of a multipart request, bounded by the
// configured upload limit.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	limit := s.config.Images.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, domainerrors.Validationf("image exceeds the %s upload limit", humanize.Bytes(uint64(limit)))
		}
		return nil, domainerrors.Validation("failed to parse form data").WithCause(err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }() //nolint:errcheck // Temp file cleanup

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, domainerrors.Validation("no file uploaded, use the 'file' field in a multipart form")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, domainerrors.Validation("failed to read uploaded file").WithCause(err)
	}
	if int64(len(data)) > limit {
		return nil, domainerrors.Validationf("image exceeds the %s upload limit", humanize.Bytes(uint64(limit)))
	}
	return data, nil
}

// handleServeFile serves covers from the local object store.
func (s *Server) handleServeFile(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")

	data, err := s.files.Get(path)
	if err != nil {
		writeError(w, domainerrors.NotFound("file not found"))
		return
	}

	// Cover paths are never reused, so clients may cache forever.
	w.Header().Set("Content-Type", mimetype.Detect(data).String())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data) //nolint:errcheck // Client went away
}
