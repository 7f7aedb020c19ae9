package handler

import (
	"net/http"

	"pcshop/internal/banner"
	"pcshop/internal/httpx"
	"pcshop/internal/utils"

	"github.com/go-chi/chi/v5"
)

// listBanners serves the storefront's active banners. Admins asking for
// all=true also get inactive ones.
func (h *Handler) listBanners(w http.ResponseWriter, r *http.Request) {
	if all := httpx.QueryBool(r, "all"); all != nil && *all && utils.IsAdmin(r.Context()) {
		items, err := h.Banners.ListAll(r.Context())
		if err != nil {
			httpx.Error(w, r, err)
			return
		}
		httpx.OK(w, items)
		return
	}

	var typ *banner.Type
	if v := httpx.QueryString(r, "type"); v != nil {
		t := banner.Type(*v)
		typ = &t
	}
	items, err := h.Banners.ListPublic(r.Context(), typ)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, items)
}

func (h *Handler) getBanner(w http.ResponseWriter, r *http.Request) {
	b, err := h.Banners.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, b)
}

func (h *Handler) createBanner(w http.ResponseWriter, r *http.Request) {
	var in banner.CreateInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	b, err := h.Banners.Create(r.Context(), in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, b)
}

func (h *Handler) updateBanner(w http.ResponseWriter, r *http.Request) {
	var in banner.UpdateInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	b, err := h.Banners.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, b)
}

func (h *Handler) deleteBanner(w http.ResponseWriter, r *http.Request) {
	if err := h.Banners.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "banner deleted")
}
