package upload

import "pcshop/internal/apperror"

var (
	ErrEmptyFile       = apperror.Invalid("file is required")
	ErrFileTooLarge    = apperror.Invalid("file exceeds 5 MiB")
	ErrUnsupportedType = apperror.Invalid("only jpeg, png, webp and gif images are allowed")
	ErrNotConfigured   = apperror.New(apperror.Internal, "image host is not configured")
)
