package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tabsverse/tabsverse-server/internal/domain"
	"github.com/tabsverse/tabsverse-server/internal/validation"
)

// ExtractMetadataInput is a metadata lookup request.
type ExtractMetadataInput struct {
	URL string `json:"url" validate:"required,max=2048"`
}

// MetadataService previews links before they are saved as tabs.
type MetadataService struct {
	extractor MetadataExtractor
	validator *validation.Validator
	logger    *slog.Logger
}

// NewMetadataService creates a new metadata service.
func NewMetadataService(extractor MetadataExtractor, validator *validation.Validator, logger *slog.Logger) *MetadataService {
	return &MetadataService{
		extractor: extractor,
		validator: validator,
		logger:    logger,
	}
}

// Extract returns metadata for a link. Malformed URLs fail with an
// InvalidURL error; unreachable targets still produce a degraded result.
func (s *MetadataService) Extract(ctx context.Context, in ExtractMetadataInput) (*domain.URLMetadata, error) {
	in.URL = strings.TrimSpace(in.URL)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	meta, err := s.extractor.Extract(ctx, in.URL)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("metadata extracted",
		"url", meta.URL,
		"type", meta.ResourceType,
		"source", meta.Source,
		"confidence", meta.Confidence,
	)
	return meta, nil
}
