package validation_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabsverse/tabsverse-server/internal/errors"
	"github.com/tabsverse/tabsverse-server/internal/validation"
)

type TestRequest struct {
	Title      string   `json:"title" validate:"required,min=1,max=120"`
	URL        string   `json:"url" validate:"required,httpurl"`
	Visibility string   `json:"visibility,omitempty" validate:"omitempty,oneof=private public"`
	Tags       []string `json:"tags" validate:"max=6,dive,tag,max=40"`
}

func validRequest() TestRequest {
	return TestRequest{
		Title:      "Reading list",
		URL:        "https://example.com/post",
		Visibility: "public",
		Tags:       []string{"go", "web design"},
	}
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()
	assert.NoError(t, v.Validate(validRequest()))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		mutate    func(*TestRequest)
		wantField string
		wantMsg   string
	}{
		{"missing title", func(r *TestRequest) { r.Title = "" }, "title", "is required"},
		{"title too long", func(r *TestRequest) { r.Title = strings.Repeat("x", 121) }, "title", "must not exceed 120 characters"},
		{"not a url", func(r *TestRequest) { r.URL = "not a url" }, "url", "must be a valid http or https URL"},
		{"ftp url", func(r *TestRequest) { r.URL = "ftp://example.com" }, "url", "must be a valid http or https URL"},
		{"bad visibility", func(r *TestRequest) { r.Visibility = "friends" }, "visibility", "must be one of: private public"},
		{"too many tags", func(r *TestRequest) { r.Tags = []string{"a", "b", "c", "d", "e", "f", "g"} }, "tags", "must not contain more than 6 items"},
		{"empty tag", func(r *TestRequest) { r.Tags = []string{"ok", "🚀!"} }, "tags[1]", "must contain letters or digits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := v.Validate(req)
			require.Error(t, err)

			var domainErr *errors.Error
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
			assert.Equal(t, errors.CodeValidation, domainErr.Code)
			assert.Contains(t, domainErr.Message, tt.wantField)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	req := validRequest()
	req.Title = ""

	err := v.Validate(req)
	require.Error(t, err)

	// JSON tag name "title", not struct field name "Title".
	assert.Contains(t, err.Error(), "title")
	assert.NotContains(t, err.Error(), "Title")
}

func TestIsHTTPURL(t *testing.T) {
	assert.True(t, validation.IsHTTPURL("https://example.com"))
	assert.True(t, validation.IsHTTPURL("http://localhost:8080/x"))
	assert.False(t, validation.IsHTTPURL("example.com"))
	assert.False(t, validation.IsHTTPURL("https://"))
	assert.False(t, validation.IsHTTPURL("javascript:alert(1)"))
}
