package banner

import "pcshop/internal/apperror"

var (
	ErrBannerNotFound   = apperror.New(apperror.NotFound, "banner not found")
	ErrImageRequired    = apperror.Invalid("image url is required")
	ErrInvalidType      = apperror.Invalid("banner type must be carousel or sub-banner")
	ErrNegativePosition = apperror.Invalid("position cannot be negative")
	ErrNoFieldsToUpdate = apperror.Invalid("no fields to update")
)
