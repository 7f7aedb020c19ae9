package handler

import (
	"net/http"

	"pcshop/internal/httpx"
	"pcshop/internal/order"

	"github.com/go-chi/chi/v5"
)

type orderStatusRequest struct {
	Status order.Status `json:"status"`
}

func orderID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := httpx.ParseUintID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, r, err)
		return 0, false
	}
	return id, true
}

// createOrder is public; a valid token attaches the order to the caller.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var in order.CreateInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.Orders.Create(r.Context(), in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, res)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	opts := order.ListOptions{
		PaymentStatus: httpx.QueryBool(r, "paymentStatus"),
		Search:        httpx.QueryString(r, "search"),
		Page:          httpx.QueryInt(r, "page", 1),
		Limit:         httpx.QueryInt(r, "limit", 20),
	}
	if v := httpx.QueryString(r, "status"); v != nil {
		s := order.Status(*v)
		opts.Status = &s
	}

	items, total, err := h.Orders.List(r.Context(), opts)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, pageOf(r, items, total))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	o, err := h.Orders.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, o)
}

func (h *Handler) orderQR(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	info, err := h.Orders.PaymentQR(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, info)
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var in orderStatusRequest
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	o, err := h.Orders.UpdateStatus(r.Context(), id, in.Status)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, o)
}

func (h *Handler) markOrderPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	o, err := h.Orders.MarkPaid(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, o)
}
