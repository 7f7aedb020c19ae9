package order

import "pcshop/internal/apperror"

var (
	ErrOrderNotFound        = apperror.New(apperror.NotFound, "order not found")
	ErrUnauthenticated      = apperror.New(apperror.Unauthorized, "login required")
	ErrForbidden            = apperror.New(apperror.Forbidden, "order belongs to another customer")
	ErrCustomerNameRequired = apperror.Invalid("customer name is required")
	ErrInvalidEmail         = apperror.Invalid("invalid customer email")
	ErrPhoneRequired        = apperror.Invalid("customer phone is required")
	ErrAddressRequired      = apperror.Invalid("shipping address is required")
	ErrInvalidPayment       = apperror.Invalid("payment method must be cod or bank_transfer")
	ErrEmptyItems           = apperror.Invalid("order must contain at least one item")
	ErrInvalidQuantity      = apperror.Invalid("quantity must be greater than 0")
	ErrUnknownProduct       = apperror.Invalid("order contains an unknown product")
	ErrInsufficientStock    = apperror.New(apperror.Conflict, "insufficient stock")
	ErrInvalidStatus        = apperror.Invalid("invalid order status")
	ErrOrderCancelled       = apperror.New(apperror.Conflict, "order is cancelled")
	ErrNotBankTransfer      = apperror.Invalid("order is not paid by bank transfer")
	ErrQRUnavailable        = apperror.New(apperror.Internal, "payment QR is not configured")
	ErrDuplicateOrderCode   = apperror.New(apperror.Conflict, "order code already taken")

	PgUniqueViolation = "23505"
)
