package user

import "pcshop/internal/apperror"

var (
	ErrUserNotFound       = apperror.New(apperror.NotFound, "user not found")
	ErrEmailExists        = apperror.New(apperror.Conflict, "email already registered")
	ErrInvalidEmail       = apperror.Invalid("invalid email")
	ErrWeakPassword       = apperror.Invalid("password must be at least 6 characters")
	ErrInvalidCredentials = apperror.New(apperror.Unauthorized, "invalid email or password")
	ErrInactiveAccount    = apperror.New(apperror.Forbidden, "account is not verified")
	ErrAlreadyVerified    = apperror.Invalid("account already verified")
	ErrInvalidCode        = apperror.Invalid("invalid verification code")
	ErrCodeExpired        = apperror.Invalid("verification code expired")
	ErrInvalidRole        = apperror.Invalid("invalid role")
	ErrNoFieldsToUpdate   = apperror.Invalid("no fields to update")
	ErrInvalidToken       = apperror.New(apperror.Unauthorized, "invalid token")

	PgUniqueViolation = "23505"
)
