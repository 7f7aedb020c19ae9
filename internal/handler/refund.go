package handler

import (
	"net/http"

	"pcshop/internal/httpx"
	"pcshop/internal/refund"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) createRefund(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}
	var in refund.CreateInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	req, err := h.Refunds.Create(r.Context(), in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, req)
}

func (h *Handler) listRefunds(w http.ResponseWriter, r *http.Request) {
	opts := refund.ListOptions{
		Page:  httpx.QueryInt(r, "page", 1),
		Limit: httpx.QueryInt(r, "limit", 20),
	}
	if v := httpx.QueryString(r, "status"); v != nil {
		s := refund.Status(*v)
		opts.Status = &s
	}

	items, total, err := h.Refunds.List(r.Context(), opts)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, pageOf(r, items, total))
}

func (h *Handler) getRefund(w http.ResponseWriter, r *http.Request) {
	req, err := h.Refunds.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, req)
}

func (h *Handler) updateRefundStatus(w http.ResponseWriter, r *http.Request) {
	var in refund.UpdateStatusInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	req, err := h.Refunds.UpdateStatus(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, req)
}
