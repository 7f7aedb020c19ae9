package refund

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusApproved, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusApproved, StatusRejected},
	StatusProcessing: {StatusApproved, StatusRejected},
	StatusApproved:   {StatusCompleted},
}

// CanTransition reports whether an admin may move a request from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Item struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Items is stored as a JSONB array.
type Items []Item

func (it Items) Value() (driver.Value, error) {
	if it == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(it)
}

func (it *Items) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*it = Items{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("refund items: unsupported type %T", src)
	}
	out := Items{}
	if err := json.Unmarshal(b, &out); err != nil {
		return err
	}
	*it = out
	return nil
}

type RefundRequest struct {
	ID        string    `json:"id"`
	OrderID   uint      `json:"orderId"`
	UserID    uint      `json:"userId"`
	Items     Items     `json:"items"`
	Reason    string    `json:"reason"`
	Status    Status    `json:"status"`
	AdminNote string    `json:"adminNote"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateInput struct {
	OrderID uint   `json:"orderId"`
	Items   []Item `json:"items"`
	Reason  string `json:"reason"`
}

type UpdateStatusInput struct {
	Status    Status `json:"status"`
	AdminNote string `json:"adminNote"`
}

type ListOptions struct {
	UserID *uint
	Status *Status
	Page   int
	Limit  int
}
