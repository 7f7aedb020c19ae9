package manufacturer

import "time"

type Manufacturer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	LogoURL   string    `json:"logoUrl"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateInput struct {
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl"`
	Country string `json:"country"`
}

type UpdateInput struct {
	Name    *string `json:"name"`
	LogoURL *string `json:"logoUrl"`
	Country *string `json:"country"`
}

type ListOptions struct {
	Search  *string
	Country *string
	Page    int
	Limit   int
}
