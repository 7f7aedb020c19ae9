package handler

import (
	"net/http"

	"pcshop/internal/apperror"
	"pcshop/internal/httpx"
	"pcshop/internal/product"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

var ErrInvalidPrice = apperror.Invalid("minPrice and maxPrice must be numbers")

func queryDecimal(r *http.Request, key string) (*decimal.Decimal, error) {
	v := httpx.QueryString(r, key)
	if v == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*v)
	if err != nil {
		return nil, ErrInvalidPrice
	}
	return &d, nil
}

func productListOptions(r *http.Request) (product.ListOptions, error) {
	opts := product.ListOptions{
		CategoryID:     httpx.QueryString(r, "categoryId"),
		ManufacturerID: httpx.QueryString(r, "manufacturerId"),
		Search:         httpx.QueryString(r, "search"),
		InStock:        httpx.QueryBool(r, "inStock"),
		Redeemable:     httpx.QueryBool(r, "redeemable"),
		Sort:           product.ParseSort(r.URL.Query().Get("sort")),
		Page:           httpx.QueryInt(r, "page", 1),
		Limit:          httpx.QueryInt(r, "limit", 20),
	}
	if v := httpx.QueryString(r, "type"); v != nil {
		t := product.Type(*v)
		opts.Type = &t
	}

	var err error
	if opts.MinPrice, err = queryDecimal(r, "minPrice"); err != nil {
		return opts, err
	}
	if opts.MaxPrice, err = queryDecimal(r, "maxPrice"); err != nil {
		return opts, err
	}
	return opts, nil
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	opts, err := productListOptions(r)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	items, total, err := h.Products.List(r.Context(), opts)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, pageOf(r, items, total))
}

func (h *Handler) listRedeemable(w http.ResponseWriter, r *http.Request) {
	items, total, err := h.Products.ListRedeemable(r.Context(),
		httpx.QueryInt(r, "page", 1), httpx.QueryInt(r, "limit", 20))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, pageOf(r, items, total))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, p)
}

func (h *Handler) getProductBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := h.Products.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, p)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in product.CreateInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	p, err := h.Products.Create(r.Context(), in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var in product.UpdateInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	p, err := h.Products.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "product deleted")
}

func (h *Handler) redeem(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}
	res, err := h.Redemptions.Redeem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, res)
}

func (h *Handler) myRedemptions(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}
	items, total, err := h.Redemptions.ListMine(r.Context(),
		httpx.QueryInt(r, "page", 1), httpx.QueryInt(r, "limit", 20))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, pageOf(r, items, total))
}

func (h *Handler) listRedemptions(w http.ResponseWriter, r *http.Request) {
	items, total, err := h.Redemptions.ListAll(r.Context(),
		httpx.QueryInt(r, "page", 1), httpx.QueryInt(r, "limit", 20))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, pageOf(r, items, total))
}
