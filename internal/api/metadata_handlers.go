package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tabsverse/tabsverse-server/internal/domain"
	"github.com/tabsverse/tabsverse-server/internal/service"
)

func (s *Server) registerMetadataRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "extractMetadata",
		Method:      http.MethodPost,
		Path:        "/api/v1/metadata",
		Summary:     "Extract link metadata",
		Description: "Classifies a URL and reads its title, description, thumbnail, and favicon. Unreachable links return a low-confidence result built from the URL.",
		Tags:        []string{"Metadata"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleExtractMetadata)
}

// ExtractMetadataRequest is a metadata lookup.
type ExtractMetadataRequest struct {
	Body service.ExtractMetadataInput
}

// MetadataOutput wraps extracted metadata for Huma.
type MetadataOutput struct {
	Body *domain.URLMetadata
}

func (s *Server) handleExtractMetadata(ctx context.Context, input *ExtractMetadataRequest) (*MetadataOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	meta, err := s.services.Metadata.Extract(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &MetadataOutput{Body: meta}, nil
}
