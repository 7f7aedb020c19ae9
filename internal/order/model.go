package order

import (
	"time"

	"pcshop/internal/payment"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending         Status = "pending"
	StatusConfirmed       Status = "confirmed"
	StatusShipping        Status = "shipping"
	StatusDelivered       Status = "delivered"
	StatusCancelled       Status = "cancelled"
	StatusRefundRequested Status = "refund_requested"
	StatusRefunded        Status = "refunded"
	StatusRefundRejected  Status = "refund_rejected"
)

var Statuses = []Status{
	StatusPending, StatusConfirmed, StatusShipping, StatusDelivered, StatusCancelled,
	StatusRefundRequested, StatusRefunded, StatusRefundRejected,
}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// PointUnit is the amount of order total that earns one loyalty point.
var PointUnit = decimal.NewFromInt(10000)

// EarnedPoints returns floor(total / PointUnit).
func EarnedPoints(total decimal.Decimal) int64 {
	if !total.IsPositive() {
		return 0
	}
	return total.Div(PointUnit).Floor().IntPart()
}

// Item is a line snapshot taken at checkout.
type Item struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID              uint            `json:"id"`
	Code            string          `json:"code"`
	UserID          *uint           `json:"userId"`
	CustomerName    string          `json:"customerName"`
	CustomerEmail   string          `json:"customerEmail"`
	CustomerPhone   string          `json:"customerPhone"`
	ShippingAddress string          `json:"shippingAddress"`
	Note            string          `json:"note"`
	Items           []Item          `json:"items"`
	Total           decimal.Decimal `json:"total"`
	PaymentMethod   payment.Method  `json:"paymentMethod"`
	PaymentStatus   bool            `json:"paymentStatus"`
	Status          Status          `json:"status"`
	EarnedPoints    int64           `json:"earnedPoints"`
	FulfilledAt     *time.Time      `json:"fulfilledAt"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// QuantityOf returns the ordered quantity of a product, 0 if absent.
func (o *Order) QuantityOf(productID string) int {
	n := 0
	for _, it := range o.Items {
		if it.ProductID == productID {
			n += it.Quantity
		}
	}
	return n
}

func (o *Order) IsOwnedBy(userID uint) bool {
	return o.UserID != nil && *o.UserID == userID
}

type ItemInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CreateInput struct {
	CustomerName    string         `json:"customerName"`
	CustomerEmail   string         `json:"customerEmail"`
	CustomerPhone   string         `json:"customerPhone"`
	ShippingAddress string         `json:"shippingAddress"`
	Note            string         `json:"note"`
	PaymentMethod   payment.Method `json:"paymentMethod"`
	Items           []ItemInput    `json:"items"`
}

// CreateResult is returned to the checkout page.
type CreateResult struct {
	Order   *Order        `json:"order"`
	Payment *payment.Info `json:"payment"`
}

// PaymentUpdate reports what MarkPaid changed.
type PaymentUpdate struct {
	Order     *Order
	Paid      bool
	Fulfilled bool
}

// ProductSnapshot is the catalog state an order line is priced from.
type ProductSnapshot struct {
	ID         string
	Name       string
	FinalPrice decimal.Decimal
	Stock      int
}

type ListOptions struct {
	UserID        *uint
	Status        *Status
	PaymentStatus *bool
	Search        *string
	Page          int
	Limit         int
}
