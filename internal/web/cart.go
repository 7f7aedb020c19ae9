package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"pcshop/internal/order"
)

const (
	cartCookie      = "cart"
	cartMaxAge      = 30 * 24 * time.Hour
	maxLineQuantity = 99
	maxCartLines    = 50
)

type CartItem struct {
	ProductID string `json:"p"`
	Quantity  int    `json:"q"`
}

// Cart lives in a cookie as base64url JSON. Unreadable cookies yield an
// empty cart.
type Cart struct {
	Items []CartItem
}

func ReadCart(r *http.Request) *Cart {
	c, err := r.Cookie(cartCookie)
	if err != nil || c.Value == "" {
		return &Cart{}
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return &Cart{}
	}
	var items []CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return &Cart{}
	}

	cart := &Cart{}
	for _, it := range items {
		cart.Add(it.ProductID, it.Quantity)
	}
	return cart
}

func clampQuantity(q int) int {
	if q > maxLineQuantity {
		return maxLineQuantity
	}
	return q
}

func (c *Cart) index(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// Add increases the quantity of a line, creating it when missing.
func (c *Cart) Add(productID string, qty int) {
	productID = strings.TrimSpace(productID)
	if productID == "" || qty <= 0 {
		return
	}
	if i := c.index(productID); i >= 0 {
		c.Items[i].Quantity = clampQuantity(c.Items[i].Quantity + qty)
		return
	}
	if len(c.Items) >= maxCartLines {
		return
	}
	c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: clampQuantity(qty)})
}

// Set replaces a line quantity; zero or less removes the line.
func (c *Cart) Set(productID string, qty int) {
	if qty <= 0 {
		c.Remove(productID)
		return
	}
	if i := c.index(productID); i >= 0 {
		c.Items[i].Quantity = clampQuantity(qty)
		return
	}
	c.Add(productID, qty)
}

func (c *Cart) Remove(productID string) {
	if i := c.index(productID); i >= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
}

// Count is the number of units across lines.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Empty() bool {
	return len(c.Items) == 0
}

func (c *Cart) OrderItems() []order.ItemInput {
	out := make([]order.ItemInput, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, order.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

func (c *Cart) Write(w http.ResponseWriter, secure bool) {
	if c.Empty() {
		ClearCart(w, secure)
		return
	}
	raw, _ := json.Marshal(c.Items)
	http.SetCookie(w, &http.Cookie{
		Name:     cartCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   int(cartMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearCart(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     cartCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
