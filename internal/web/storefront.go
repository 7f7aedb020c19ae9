package web

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"pcshop/internal/banner"
	"pcshop/internal/logger"
	"pcshop/internal/order"
	"pcshop/internal/payment"
	"pcshop/internal/product"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	homeShelfSize = 8
	listPageSize  = 12
)

// listFilters are the catalog query parameters forwarded to the backend.
var listFilters = []string{
	"type", "categoryId", "manufacturerId", "search", "minPrice", "maxPrice", "inStock", "sort",
}

type homeData struct {
	layoutData
	Carousel    []*banner.Banner
	SubBanners  []*banner.Banner
	Newest      []*product.Product
	BestSelling []*product.Product
}

func (s *Server) bannersOf(ctx context.Context, typ banner.Type) []*banner.Banner {
	items, err := s.api.Banners(ctx, typ)
	if err != nil {
		logger.FromCtx(ctx).Warn("banners unavailable", zap.String("type", string(typ)), zap.Error(err))
		return nil
	}
	return items
}

func (s *Server) shelf(ctx context.Context, sort product.SortField) ([]*product.Product, error) {
	page, err := s.api.ListProducts(ctx, url.Values{
		"sort":  {string(sort)},
		"limit": {strconv.Itoa(homeShelfSize)},
	})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := homeData{
		layoutData: s.layout(r, "PC Shop"),
		Carousel:   s.bannersOf(ctx, banner.TypeCarousel),
		SubBanners: s.bannersOf(ctx, banner.TypeSubBanner),
	}

	var err error
	if data.Newest, err = s.shelf(ctx, product.SortNewest); err != nil {
		s.fail(w, r, err)
		return
	}
	if data.BestSelling, err = s.shelf(ctx, product.SortBestSelling); err != nil {
		s.fail(w, r, err)
		return
	}
	s.views.Render(w, r, http.StatusOK, "home", data)
}

type productsData struct {
	layoutData
	Products   []*product.Product
	Total      int64
	Types      []product.Type
	Filter     url.Values
	Page       int
	TotalPages int
	PrevURL    string
	NextURL    string
}

func totalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func pageURL(path string, filter url.Values, page int) string {
	q := url.Values{}
	for k, v := range filter {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(page))
	return path + "?" + q.Encode()
}

func catalogFilter(r *http.Request) url.Values {
	filter := url.Values{}
	for _, k := range listFilters {
		if v := strings.TrimSpace(r.URL.Query().Get(k)); v != "" {
			filter.Set(k, v)
		}
	}
	return filter
}

func queryPage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func (s *Server) productList(w http.ResponseWriter, r *http.Request) {
	filter := catalogFilter(r)
	page := queryPage(r)

	q := url.Values{}
	for k, v := range filter {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(listPageSize))

	res, err := s.api.ListProducts(r.Context(), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	data := productsData{
		layoutData: s.layout(r, "Products"),
		Products:   res.Items,
		Total:      res.Total,
		Types:      product.Types,
		Filter:     filter,
		Page:       page,
		TotalPages: totalPages(res.Total, listPageSize),
	}
	if page > 1 {
		data.PrevURL = pageURL("/products", filter, page-1)
	}
	if page < data.TotalPages {
		data.NextURL = pageURL("/products", filter, page+1)
	}
	s.views.Render(w, r, http.StatusOK, "products", data)
}

type productData struct {
	layoutData
	Product  *product.Product
	SpecKeys []string
}

func (s *Server) productDetail(w http.ResponseWriter, r *http.Request) {
	p, err := s.api.ProductBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.views.Render(w, r, http.StatusOK, "product", productData{
		layoutData: s.layout(r, p.Name),
		Product:    p,
		SpecKeys:   p.Specs.Keys(),
	})
}

type cartLine struct {
	Product  *product.Product
	Quantity int
	Subtotal decimal.Decimal
}

type cartData struct {
	layoutData
	Lines []cartLine
	Total decimal.Decimal
}

// resolveCart prices every line against the catalog. Lines whose product is
// gone are dropped from the cart.
func (s *Server) resolveCart(ctx context.Context, cart *Cart) ([]cartLine, decimal.Decimal, bool, error) {
	lines := make([]cartLine, 0, len(cart.Items))
	total := decimal.Zero
	changed := false

	for _, it := range append([]CartItem(nil), cart.Items...) {
		p, err := s.api.Product(ctx, it.ProductID)
		if IsStatus(err, http.StatusNotFound) {
			cart.Remove(it.ProductID)
			changed = true
			continue
		}
		if err != nil {
			return nil, decimal.Zero, false, err
		}
		sub := p.FinalPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		lines = append(lines, cartLine{Product: p, Quantity: it.Quantity, Subtotal: sub})
		total = total.Add(sub)
	}
	return lines, total, changed, nil
}

func (s *Server) cartPage(w http.ResponseWriter, r *http.Request) {
	cart := ReadCart(r)
	lines, total, changed, err := s.resolveCart(r.Context(), cart)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if changed {
		cart.Write(w, s.secure)
	}

	data := cartData{layoutData: s.layout(r, "Cart"), Lines: lines, Total: total}
	data.CartCount = cart.Count()
	s.views.Render(w, r, http.StatusOK, "cart", data)
}

func formQuantity(r *http.Request, fallback int) int {
	q, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("quantity")))
	if err != nil {
		return fallback
	}
	return q
}

func (s *Server) cartAdd(w http.ResponseWriter, r *http.Request) {
	cart := ReadCart(r)
	cart.Add(r.PostFormValue("productId"), formQuantity(r, 1))
	cart.Write(w, s.secure)
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

func (s *Server) cartUpdate(w http.ResponseWriter, r *http.Request) {
	cart := ReadCart(r)
	cart.Set(r.PostFormValue("productId"), formQuantity(r, 0))
	cart.Write(w, s.secure)
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

func (s *Server) cartRemove(w http.ResponseWriter, r *http.Request) {
	cart := ReadCart(r)
	cart.Remove(r.PostFormValue("productId"))
	cart.Write(w, s.secure)
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

type checkoutForm struct {
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress string
	Note            string
	PaymentMethod   string
}

type checkoutData struct {
	cartData
	Form checkoutForm
}

type successData struct {
	layoutData
	Result *order.CreateResult
}

func (s *Server) renderCheckout(w http.ResponseWriter, r *http.Request, status int, cart *Cart, form checkoutForm, msg string) {
	lines, total, changed, err := s.resolveCart(r.Context(), cart)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if changed {
		cart.Write(w, s.secure)
	}
	if len(lines) == 0 {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}

	data := checkoutData{
		cartData: cartData{layoutData: s.layout(r, "Checkout"), Lines: lines, Total: total},
		Form:     form,
	}
	data.CartCount = cart.Count()
	data.Error = msg
	s.views.Render(w, r, status, "checkout", data)
}

func (s *Server) checkoutPage(w http.ResponseWriter, r *http.Request) {
	cart := ReadCart(r)
	if cart.Empty() {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}
	s.renderCheckout(w, r, http.StatusOK, cart, checkoutForm{PaymentMethod: string(payment.MethodCOD)}, "")
}

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	cart := ReadCart(r)
	if cart.Empty() {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}

	form := checkoutForm{
		CustomerName:    strings.TrimSpace(r.PostFormValue("customerName")),
		CustomerEmail:   strings.TrimSpace(r.PostFormValue("customerEmail")),
		CustomerPhone:   strings.TrimSpace(r.PostFormValue("customerPhone")),
		ShippingAddress: strings.TrimSpace(r.PostFormValue("shippingAddress")),
		Note:            strings.TrimSpace(r.PostFormValue("note")),
		PaymentMethod:   r.PostFormValue("paymentMethod"),
	}

	res, err := s.api.CreateOrder(r.Context(), "", order.CreateInput{
		CustomerName:    form.CustomerName,
		CustomerEmail:   form.CustomerEmail,
		CustomerPhone:   form.CustomerPhone,
		ShippingAddress: form.ShippingAddress,
		Note:            form.Note,
		PaymentMethod:   payment.Method(form.PaymentMethod),
		Items:           cart.OrderItems(),
	})
	if err != nil {
		var status int
		switch {
		case IsStatus(err, http.StatusBadRequest), IsStatus(err, http.StatusConflict), IsStatus(err, http.StatusNotFound):
			status = http.StatusBadRequest
		default:
			logger.FromCtx(r.Context()).Error("checkout failed", zap.Error(err))
			status = http.StatusBadGateway
		}
		s.renderCheckout(w, r, status, cart, form, messageOf(err))
		return
	}

	ClearCart(w, s.secure)
	data := successData{layoutData: s.layout(r, "Order placed"), Result: res}
	data.CartCount = 0
	s.views.Render(w, r, http.StatusOK, "success", data)
}
