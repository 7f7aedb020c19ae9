package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	TypeOrderCreated      = "order.created"
	TypeOrderPaid         = "order.paid"
	TypeOrderFulfilled    = "order.fulfilled"
	TypeRefundRequested   = "refund.requested"
	TypeRefundDecided     = "refund.decided"
	TypeRedemptionCreated = "redemption.created"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

func NewEnvelope(producer, eventType, correlationID string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode payload: %w", err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: correlationID,
		Payload:       b,
	}, nil
}

// UnwrapPayload decodes the payload of an envelope into T.
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}

type OrderLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

type OrderCreatedPayload struct {
	OrderID       uint        `json:"order_id"`
	Code          string      `json:"code"`
	UserID        *uint       `json:"user_id,omitempty"`
	PaymentMethod string      `json:"payment_method"`
	Total         string      `json:"total"`
	Items         []OrderLine `json:"items"`
}

type OrderFulfilledPayload struct {
	OrderID      uint  `json:"order_id"`
	UserID       *uint `json:"user_id,omitempty"`
	EarnedPoints int64 `json:"earned_points"`
}

type RefundPayload struct {
	RefundID string `json:"refund_id"`
	OrderID  uint   `json:"order_id"`
	UserID   uint   `json:"user_id"`
	Status   string `json:"status"`
}

type RedemptionPayload struct {
	RedemptionID string `json:"redemption_id"`
	UserID       uint   `json:"user_id"`
	ProductID    string `json:"product_id"`
	PointCost    int64  `json:"point_cost"`
}
