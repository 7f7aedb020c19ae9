package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pcshop/internal/config"
	"pcshop/internal/httpx"
	"pcshop/internal/product"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandler(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "frontend-heavy", r.Header.Get("X-Client-Type"))
		switch r.URL.Path {
		case "/products":
			httpx.OK(w, httpx.Page[*product.Product]{Items: []*product.Product{}, Page: 1, Limit: 8})
		default:
			httpx.OK(w, []any{})
		}
	}))
	defer api.Close()

	h, err := newHandler(&config.WebConfig{
		APIBaseURL:  api.URL,
		APITimeout:  time.Second,
		ServiceName: "pcshop-web-test",
	})
	require.NoError(t, err)

	t.Run("Home", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		assert.Contains(t, rec.Body.String(), "New arrivals")
	})

	t.Run("AdminNeedsLogin", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/products", nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/admin/login", rec.Header().Get("Location"))
	})
}

func TestRun(t *testing.T) {
	origStart := startServerFunc
	defer func() { startServerFunc = origStart }()

	var addr string
	startServerFunc = func(srv *http.Server) error {
		addr = srv.Addr
		return http.ErrServerClosed
	}

	t.Setenv("APP_ENV", "test")
	t.Setenv("WEB_PORT", "3100")

	require.NoError(t, run())
	assert.Equal(t, ":3100", addr)
}
