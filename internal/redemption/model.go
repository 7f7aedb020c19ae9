package redemption

import "time"

// Redemption is one exchange of loyalty points for a product.
type Redemption struct {
	ID          string    `json:"id"`
	UserID      uint      `json:"userId"`
	UserEmail   string    `json:"userEmail,omitempty"`
	ProductID   string    `json:"productId"`
	ProductName string    `json:"productName"`
	PointCost   int64     `json:"pointCost"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Result struct {
	Redemption      *Redemption `json:"redemption"`
	RemainingPoints int64       `json:"remainingPoints"`
}

type ListOptions struct {
	UserID *uint
	Page   int
	Limit  int
}
