package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/tabsverse/tabsverse-server/internal/errors"
	"github.com/tabsverse/tabsverse-server/internal/logger"
	"github.com/tabsverse/tabsverse-server/internal/metadata"
	"github.com/tabsverse/tabsverse-server/internal/validation"
)

func TestMetadataService_Extract(t *testing.T) {
	extractor := &fakeExtractor{}
	svc := NewMetadataService(extractor, validation.New(), logger.Discard())

	meta, err := svc.Extract(context.Background(), ExtractMetadataInput{URL: "  https://example.com/a  "})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", meta.URL)
	assert.Equal(t, []string{"https://example.com/a"}, extractor.urls)

	_, err = svc.Extract(context.Background(), ExtractMetadataInput{URL: "   "})
	requireCode(t, err, domainerrors.CodeValidation)
}

func TestMetadataService_Extract_InvalidURL(t *testing.T) {
	ex := metadata.NewExtractor(metadata.DefaultOptions(), logger.Discard())
	t.Cleanup(ex.Close)
	svc := NewMetadataService(ex, validation.New(), logger.Discard())

	for _, raw := range []string{"ftp://example.com", "not a url", "https://"} {
		_, err := svc.Extract(context.Background(), ExtractMetadataInput{URL: raw})
		requireCode(t, err, domainerrors.CodeInvalidURL, raw)
	}
}
