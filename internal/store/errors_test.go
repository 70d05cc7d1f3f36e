package store_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tabsverse/tabsverse-server/internal/store"
)

func TestError_ErrorWithCause(t *testing.T) {
	err := store.ErrNotFound.WithCause(errors.New("row missing"))

	assert.Contains(t, err.Error(), "resource not found")
	assert.Contains(t, err.Error(), "row missing")
	assert.Equal(t, http.StatusNotFound, err.HTTPCode())
}

func TestError_IsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("update cover: %w", store.ErrVersionConflict.WithCause(errors.New("version 3 != 4")))

	assert.ErrorIs(t, err, store.ErrVersionConflict)
	assert.NotErrorIs(t, err, store.ErrAlreadyExists)
	assert.NotErrorIs(t, err, store.ErrNotFound)
}
