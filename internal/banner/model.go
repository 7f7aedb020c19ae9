package banner

import "time"

type Type string

const (
	TypeCarousel  Type = "carousel"
	TypeSubBanner Type = "sub-banner"
)

func (t Type) Valid() bool {
	return t == TypeCarousel || t == TypeSubBanner
}

type Banner struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ImageURL  string    `json:"imageUrl"`
	LinkURL   string    `json:"linkUrl"`
	Type      Type      `json:"type"`
	Position  int       `json:"position"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateInput struct {
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl"`
	LinkURL  string `json:"linkUrl"`
	Type     Type   `json:"type"`
	Position int    `json:"position"`
	IsActive *bool  `json:"isActive"`
}

type UpdateInput struct {
	Title    *string `json:"title"`
	ImageURL *string `json:"imageUrl"`
	LinkURL  *string `json:"linkUrl"`
	Type     *Type   `json:"type"`
	Position *int    `json:"position"`
	IsActive *bool   `json:"isActive"`
}

type ListOptions struct {
	Type       *Type
	ActiveOnly bool
}
