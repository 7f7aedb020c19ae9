// Package handler exposes the domain services over REST.
package handler

import (
	"net/http"

	"pcshop/internal/banner"
	"pcshop/internal/category"
	"pcshop/internal/httpx"
	"pcshop/internal/manufacturer"
	"pcshop/internal/metrics"
	"pcshop/internal/middleware"
	"pcshop/internal/order"
	"pcshop/internal/product"
	"pcshop/internal/redemption"
	"pcshop/internal/refund"
	"pcshop/internal/upload"
	"pcshop/internal/user"
	"pcshop/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Users         user.Service
	Categories    category.Service
	Manufacturers manufacturer.Service
	Products      product.Service
	Orders        order.Service
	Redemptions   redemption.Service
	Refunds       refund.Service
	Banners       banner.Service
	Uploads       upload.Service
	Stats         *metrics.Registry
}

var adminOnly = middleware.RequireRole(utils.RoleAdmin)

// Routes mounts every endpoint on r. Authentication must already have run;
// routes outside the public allowlist are rejected before reaching here.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/verify", h.verify)
		r.Post("/resend-code", h.resendCode)
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/me", h.me)
		r.Patch("/me", h.updateMe)
		r.Get("/me/redemptions", h.myRedemptions)

		r.With(adminOnly).Get("/", h.listUsers)
		r.With(adminOnly).Get("/{id}", h.getUser)
		r.With(adminOnly).Patch("/{id}", h.updateUser)
		r.With(adminOnly).Delete("/{id}", h.deleteUser)
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.listCategories)
		r.Get("/{idOrSlug}", h.getCategory)
		r.With(adminOnly).Post("/", h.createCategory)
		r.With(adminOnly).Patch("/{id}", h.updateCategory)
		r.With(adminOnly).Delete("/{id}", h.deleteCategory)
	})

	r.Route("/manufacturers", func(r chi.Router) {
		r.Get("/", h.listManufacturers)
		r.Get("/{idOrSlug}", h.getManufacturer)
		r.With(adminOnly).Post("/", h.createManufacturer)
		r.With(adminOnly).Patch("/{id}", h.updateManufacturer)
		r.With(adminOnly).Delete("/{id}", h.deleteManufacturer)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Get("/redeemable", h.listRedeemable)
		r.Get("/slug/{slug}", h.getProductBySlug)
		r.Get("/{id}", h.getProduct)
		r.Post("/{id}/redeem", h.redeem)
		r.With(adminOnly).Post("/", h.createProduct)
		r.With(adminOnly).Patch("/{id}", h.updateProduct)
		r.With(adminOnly).Delete("/{id}", h.deleteProduct)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/", h.listOrders)
		r.Get("/{id}", h.getOrder)
		r.Get("/{id}/qr", h.orderQR)
		r.With(adminOnly).Patch("/{id}/status", h.updateOrderStatus)
		r.With(adminOnly).Patch("/{id}/payment", h.markOrderPaid)
	})

	r.With(adminOnly).Get("/redemptions", h.listRedemptions)

	r.Route("/refunds", func(r chi.Router) {
		r.Post("/", h.createRefund)
		r.Get("/", h.listRefunds)
		r.Get("/{id}", h.getRefund)
		r.With(adminOnly).Patch("/{id}/status", h.updateRefundStatus)
	})

	r.Route("/banners", func(r chi.Router) {
		r.Get("/", h.listBanners)
		r.Get("/{id}", h.getBanner)
		r.With(adminOnly).Post("/", h.createBanner)
		r.With(adminOnly).Patch("/{id}", h.updateBanner)
		r.With(adminOnly).Delete("/{id}", h.deleteBanner)
	})

	r.With(adminOnly).Post("/upload", h.upload)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Message(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Message(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})
}

func pageOf[T any](r *http.Request, items []T, total int64) httpx.Page[T] {
	page, limit := utils.NormalizePage(httpx.QueryInt(r, "page", 1), httpx.QueryInt(r, "limit", 20))
	return httpx.Page[T]{Items: items, Total: total, Page: page, Limit: limit}
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, h.Stats.Snapshot())
}
