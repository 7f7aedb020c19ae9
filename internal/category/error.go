package category

import "pcshop/internal/apperror"

var (
	ErrCategoryNotFound = apperror.New(apperror.NotFound, "category not found")
	ErrNameRequired     = apperror.Invalid("category name cannot be empty")
	ErrNoFieldsToUpdate = apperror.Invalid("no fields to update")
)
