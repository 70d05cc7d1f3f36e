package service

import (
	"errors"

	domainerrors "github.com/tabsverse/tabsverse-server/internal/errors"
	"github.com/tabsverse/tabsverse-server/internal/store"
)

// storeError converts a persistence error into a coded domain error.
// what names the entity for not-found messages ("curation", "tab").
func storeError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFoundf("%s not found", what).WithCause(err)
	case errors.Is(err, store.ErrVersionConflict):
		return domainerrors.Conflict(what + " was modified by another request").WithCause(err)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.AlreadyExists(what + " already exists").WithCause(err)
	case errors.Is(err, store.ErrInvalidInput):
		return domainerrors.Validation(err.Error()).WithCause(err)
	default:
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "storage error")
	}
}
