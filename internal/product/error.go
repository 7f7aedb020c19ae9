package product

import "pcshop/internal/apperror"

var (
	ErrProductNotFound    = apperror.New(apperror.NotFound, "product not found")
	ErrNameRequired       = apperror.Invalid("name cannot be empty")
	ErrInvalidType        = apperror.Invalid("invalid product type")
	ErrInvalidDiscount    = apperror.Invalid("discount must be between 0 and 100")
	ErrNegativePrice      = apperror.Invalid("price cannot be negative")
	ErrNegativeStock      = apperror.Invalid("stock cannot be negative")
	ErrInvalidPointCost   = apperror.Invalid("point cost must be positive for redeemable products")
	ErrEmptySpecKey       = apperror.Invalid("spec keys cannot be empty")
	ErrNoFieldsToUpdate   = apperror.Invalid("no fields to update")
	ErrInvalidReference   = apperror.Invalid("category or manufacturer does not exist")
	ErrInvalidPriceFilter = apperror.Invalid("minPrice cannot exceed maxPrice")

	PgForeignKeyViolation = "23503"
)
