package utils

import "context"

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID uint
	Email  string
	Role   string
}

type identityKey struct{}

// SetUserContext attaches the caller identity; the auth middleware calls it
// once per request.
func SetUserContext(ctx context.Context, id uint, email, role string) context.Context {
	return context.WithValue(ctx, identityKey{}, Identity{UserID: id, Email: email, Role: role})
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

func GetUserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := IdentityFrom(ctx)
	return id.UserID, ok
}

func GetUserEmailFromContext(ctx context.Context) string {
	id, _ := IdentityFrom(ctx)
	return id.Email
}

func GetUserRoleFromContext(ctx context.Context) string {
	id, _ := IdentityFrom(ctx)
	return id.Role
}

func IsAdmin(ctx context.Context) bool {
	return GetUserRoleFromContext(ctx) == RoleAdmin
}
