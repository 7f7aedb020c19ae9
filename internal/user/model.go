package user

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

type User struct {
	ID                    uint       `json:"id"`
	Email                 string     `json:"email"`
	PasswordHash          string     `json:"-"`
	FullName              string     `json:"fullName"`
	Phone                 string     `json:"phone"`
	Address               string     `json:"address"`
	Role                  Role       `json:"role"`
	IsActive              bool       `json:"isActive"`
	Points                int64      `json:"points"`
	VerificationCode      *string    `json:"-"`
	VerificationExpiresAt *time.Time `json:"-"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

type LoginResult struct {
	AccessToken string `json:"accessToken"`
	ExpiresAt   int64  `json:"expiresAt"`
	User        *User  `json:"user"`
}

type UpdateProfileParams struct {
	FullName *string `json:"fullName"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
}

type AdminUpdateParams struct {
	Role     *Role `json:"role"`
	IsActive *bool `json:"isActive"`
}

type ListOptions struct {
	Search   *string
	Role     *Role
	IsActive *bool
	Page     int
	Limit    int
}
