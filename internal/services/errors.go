package services

import (
	"errors"

	"thoughtnet/internal/models"
	"thoughtnet/internal/repository"
)

// translate turns a repository error into an AppError. notFound is the
// client-facing message used when the document is missing.
func translate(err error, notFound string) error {
	if err == nil {
		return nil
	}

	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewNotFoundError(notFound)
	}
	var dup *repository.DuplicateError
	if errors.As(err, &dup) {
		return models.NewValidationError(dup.Error())
	}
	return models.NewStoreError(err)
}
