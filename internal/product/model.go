package product

import (
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeCPU       Type = "cpu"
	TypeGPU       Type = "gpu"
	TypeMainboard Type = "mainboard"
	TypeRAM       Type = "ram"
	TypeStorage   Type = "storage"
	TypePSU       Type = "psu"
	TypeCase      Type = "case"
	TypeCooler    Type = "cooler"
	TypeMonitor   Type = "monitor"
	TypeKeyboard  Type = "keyboard"
	TypeMouse     Type = "mouse"
	TypeHeadset   Type = "headset"
	TypeLaptop    Type = "laptop"
	TypeAccessory Type = "accessory"
)

// Types lists every product type in display order.
var Types = []Type{
	TypeCPU, TypeGPU, TypeMainboard, TypeRAM, TypeStorage, TypePSU, TypeCase,
	TypeCooler, TypeMonitor, TypeKeyboard, TypeMouse, TypeHeadset, TypeLaptop, TypeAccessory,
}

func (t Type) Valid() bool {
	for _, v := range Types {
		if v == t {
			return true
		}
	}
	return false
}

type Product struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Type           Type            `json:"type"`
	CategoryID     *string         `json:"categoryId"`
	ManufacturerID *string         `json:"manufacturerId"`
	Description    string          `json:"description"`
	Stock          int             `json:"stock"`
	OriginalPrice  decimal.Decimal `json:"originalPrice"`
	Discount       decimal.Decimal `json:"discount"`
	FinalPrice     decimal.Decimal `json:"finalPrice"`
	Images         []string        `json:"images"`
	Specs          Specs           `json:"specs"`
	SoldCount      int             `json:"soldCount"`
	IsRedeemable   bool            `json:"isRedeemable"`
	PointCost      int64           `json:"pointCost"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type CreateInput struct {
	Name           string            `json:"name"`
	Type           Type              `json:"type"`
	CategoryID     *string           `json:"categoryId"`
	ManufacturerID *string           `json:"manufacturerId"`
	Description    string            `json:"description"`
	Stock          int               `json:"stock"`
	OriginalPrice  decimal.Decimal   `json:"originalPrice"`
	Discount       decimal.Decimal   `json:"discount"`
	Images         []string          `json:"images"`
	Specs          map[string]string `json:"specs"`
	IsRedeemable   bool              `json:"isRedeemable"`
	PointCost      int64             `json:"pointCost"`
}

// UpdateInput is a partial update. An empty CategoryID or ManufacturerID
// detaches the product.
type UpdateInput struct {
	Name           *string            `json:"name"`
	Type           *Type              `json:"type"`
	CategoryID     *string            `json:"categoryId"`
	ManufacturerID *string            `json:"manufacturerId"`
	Description    *string            `json:"description"`
	Stock          *int               `json:"stock"`
	OriginalPrice  *decimal.Decimal   `json:"originalPrice"`
	Discount       *decimal.Decimal   `json:"discount"`
	Images         *[]string          `json:"images"`
	Specs          *map[string]string `json:"specs"`
	IsRedeemable   *bool              `json:"isRedeemable"`
	PointCost      *int64             `json:"pointCost"`
}

type SortField string

const (
	SortNewest      SortField = "newest"
	SortPriceAsc    SortField = "price_asc"
	SortPriceDesc   SortField = "price_desc"
	SortBestSelling SortField = "best_selling"
)

// ParseSort maps a query value to a sort field, defaulting to newest.
func ParseSort(s string) SortField {
	switch SortField(s) {
	case SortPriceAsc, SortPriceDesc, SortBestSelling:
		return SortField(s)
	default:
		return SortNewest
	}
}

type ListOptions struct {
	Type           *Type
	CategoryID     *string
	ManufacturerID *string
	Search         *string
	MinPrice       *decimal.Decimal
	MaxPrice       *decimal.Decimal
	InStock        *bool
	Redeemable     *bool
	Sort           SortField
	Page           int
	Limit          int
}
