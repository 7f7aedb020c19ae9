package manufacturer

import "pcshop/internal/apperror"

var (
	ErrManufacturerNotFound = apperror.New(apperror.NotFound, "manufacturer not found")
	ErrNameRequired         = apperror.Invalid("manufacturer name cannot be empty")
	ErrNoFieldsToUpdate     = apperror.Invalid("no fields to update")
)
