package redemption

import "pcshop/internal/apperror"

var (
	ErrUnauthenticated    = apperror.New(apperror.Unauthorized, "login required")
	ErrNotRedeemable      = apperror.Invalid("product cannot be redeemed with points")
	ErrInsufficientPoints = apperror.New(apperror.Conflict, "not enough points")
)
