package refund

import "pcshop/internal/apperror"

var (
	ErrRefundNotFound     = apperror.New(apperror.NotFound, "refund request not found")
	ErrUnauthenticated    = apperror.New(apperror.Unauthorized, "login required")
	ErrForbidden          = apperror.New(apperror.Forbidden, "refund request belongs to another customer")
	ErrReasonRequired     = apperror.Invalid("reason is required")
	ErrEmptyItems         = apperror.Invalid("refund must contain at least one item")
	ErrInvalidQuantity    = apperror.Invalid("quantity must be greater than 0")
	ErrProductNotInOrder  = apperror.Invalid("product is not part of the order")
	ErrQuantityExceeded   = apperror.Invalid("requested quantity exceeds ordered quantity")
	ErrOrderNotRefundable = apperror.Invalid("only paid or fulfilled orders can be refunded")
	ErrInvalidStatus      = apperror.Invalid("invalid refund status")
	ErrInvalidTransition  = apperror.Invalid("refund status transition not allowed")
	ErrStaleStatus        = apperror.New(apperror.Conflict, "refund request was updated concurrently")
)
