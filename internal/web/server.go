package web

import (
	"errors"
	"net/http"

	"pcshop/internal/logger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server renders the storefront and the admin product pages on top of the
// REST backend.
type Server struct {
	api    *Client
	views  *Renderer
	secure bool
}

func NewServer(api *Client, views *Renderer, secureCookies bool) *Server {
	return &Server{api: api, views: views, secure: secureCookies}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware())
	r.Use(chimw.Recoverer)

	r.Get("/", s.home)
	r.Get("/products", s.productList)
	r.Get("/products/{slug}", s.productDetail)

	r.Get("/cart", s.cartPage)
	r.Post("/cart/add", s.cartAdd)
	r.Post("/cart/update", s.cartUpdate)
	r.Post("/cart/remove", s.cartRemove)
	r.Get("/checkout", s.checkoutPage)
	r.Post("/checkout", s.checkout)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/login", s.adminLoginPage)
		r.Post("/login", s.adminLogin)
		r.Post("/logout", s.adminLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
			})
			r.Get("/products", s.adminProducts)
			r.Get("/products/new", s.adminNewProduct)
			r.Post("/products", s.adminCreateProduct)
			r.Get("/products/{id}/edit", s.adminEditProduct)
			r.Post("/products/{id}", s.adminUpdateProduct)
			r.Post("/products/{id}/delete", s.adminDeleteProduct)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusNotFound, "page not found")
	})
	return r
}

type layoutData struct {
	Title     string
	CartCount int
	Admin     bool
	Error     string
}

func (s *Server) layout(r *http.Request, title string) layoutData {
	return layoutData{Title: title, CartCount: ReadCart(r).Count()}
}

type errorData struct {
	layoutData
	Status  int
	Message string
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.views.Render(w, r, status, "error", errorData{
		layoutData: s.layout(r, http.StatusText(status)),
		Status:     status,
		Message:    msg,
	})
}

// fail maps a backend error onto an error page. Client errors keep their
// status; anything else is reported as a bad gateway.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		s.renderError(w, r, apiErr.Status, apiErr.Message)
		return
	}
	logger.FromCtx(r.Context()).Error("backend call failed", zap.Error(err))
	s.renderError(w, r, http.StatusBadGateway, "the shop is temporarily unavailable")
}

// messageOf is the text shown next to a form after a failed backend call.
func messageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
