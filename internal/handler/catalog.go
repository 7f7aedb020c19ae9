package handler

import (
	"net/http"

	"pcshop/internal/category"
	"pcshop/internal/httpx"
	"pcshop/internal/manufacturer"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	items, total, err := h.Categories.List(r.Context(), category.ListOptions{
		Search: httpx.QueryString(r, "search"),
		Page:   httpx.QueryInt(r, "page", 1),
		Limit:  httpx.QueryInt(r, "limit", 20),
	})
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, pageOf(r, items, total))
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.Categories.Get(r.Context(), chi.URLParam(r, "idOrSlug"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, c)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var in category.CreateInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	c, err := h.Categories.Create(r.Context(), in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, c)
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	var in category.UpdateInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	c, err := h.Categories.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, c)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.Categories.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "category deleted")
}

func (h *Handler) listManufacturers(w http.ResponseWriter, r *http.Request) {
	items, total, err := h.Manufacturers.List(r.Context(), manufacturer.ListOptions{
		Search:  httpx.QueryString(r, "search"),
		Country: httpx.QueryString(r, "country"),
		Page:    httpx.QueryInt(r, "page", 1),
		Limit:   httpx.QueryInt(r, "limit", 20),
	})
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, pageOf(r, items, total))
}

func (h *Handler) getManufacturer(w http.ResponseWriter, r *http.Request) {
	m, err := h.Manufacturers.Get(r.Context(), chi.URLParam(r, "idOrSlug"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, m)
}

func (h *Handler) createManufacturer(w http.ResponseWriter, r *http.Request) {
	var in manufacturer.CreateInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	m, err := h.Manufacturers.Create(r.Context(), in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, m)
}

func (h *Handler) updateManufacturer(w http.ResponseWriter, r *http.Request) {
	var in manufacturer.UpdateInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	m, err := h.Manufacturers.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, m)
}

func (h *Handler) deleteManufacturer(w http.ResponseWriter, r *http.Request) {
	if err := h.Manufacturers.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "manufacturer deleted")
}
