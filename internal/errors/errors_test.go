package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tabsverse/tabsverse-server/internal/errors"
)

func TestError_IsComparesByCode(t *testing.T) {
	err := errors.UploadFailed("storage rejected the object", stderrors.New("503"))

	assert.True(t, errors.Is(err, errors.ErrUploadFailed))
	assert.False(t, errors.Is(err, errors.ErrCompressionFailed))

	wrapped := fmt.Errorf("replace cover: %w", err)
	assert.True(t, errors.Is(wrapped, errors.ErrUploadFailed))
	assert.Equal(t, errors.CodeUploadFailed, errors.CodeOf(wrapped))
}

func TestError_MessageIncludesCause(t *testing.T) {
	cause := stderrors.New("version mismatch")
	err := errors.DatabaseUpdateFailed("cover was not saved", cause)

	assert.Equal(t, "cover was not saved: version mismatch", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.CodeValidation, http.StatusBadRequest},
		{errors.CodeInvalidURL, http.StatusBadRequest},
		{errors.CodeDecode, http.StatusUnprocessableEntity},
		{errors.CodeNotFound, http.StatusNotFound},
		{errors.CodeConflict, http.StatusConflict},
		{errors.CodeRateLimited, http.StatusTooManyRequests},
		{errors.CodeUploadFailed, http.StatusBadGateway},
		{errors.CodeDatabaseUpdateFailed, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, errors.CodeInternal, errors.CodeOf(stderrors.New("boom")))
}

func TestWithDetails_Copies(t *testing.T) {
	base := errors.Validation("bad input")
	detailed := base.WithDetails(map[string]string{"field": "title"})

	assert.Nil(t, base.Details)
	assert.NotNil(t, detailed.Details)
	assert.Equal(t, base.Code, detailed.Code)
}
