package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pcshop/internal/auth"
	"pcshop/internal/banner"
	"pcshop/internal/category"
	"pcshop/internal/httpx"
	"pcshop/internal/logger"
	"pcshop/internal/manufacturer"
	"pcshop/internal/metrics"
	"pcshop/internal/order"
	"pcshop/internal/product"
	"pcshop/internal/upload"
	"pcshop/internal/user"

	"go.uber.org/zap"
)

// APIError is a non-2xx answer from the backend, carrying its message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

// Client talks to the REST backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: hc}
}

func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Client-Type", "frontend-heavy")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", auth.BearerHeader(token))
	}
	if reqID := logger.RequestIDFrom(ctx); reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}

	log := logger.FromCtx(ctx).With(
		zap.String("method", method),
		zap.String("path", path),
	)

	timer := metrics.StartTimer()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("backend request failed", zap.Error(err), zap.Duration("duration", timer.Duration()))
		return &APIError{Status: http.StatusBadGateway, Message: "the shop service is unavailable"}
	}
	defer resp.Body.Close()

	log.Debug("backend request",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", timer.Duration()),
	)

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &APIError{Status: http.StatusBadGateway, Message: "invalid response from the shop service"}
	}

	if resp.StatusCode >= 300 {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, token, body, contentType, out)
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func (c *Client) ListProducts(ctx context.Context, q url.Values) (*httpx.Page[*product.Product], error) {
	var page httpx.Page[*product.Product]
	if err := c.doJSON(ctx, http.MethodGet, withQuery("/products", q), "", nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) ProductBySlug(ctx context.Context, slug string) (*product.Product, error) {
	var p product.Product
	if err := c.doJSON(ctx, http.MethodGet, "/products/slug/"+url.PathEscape(slug), "", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Product(ctx context.Context, id string) (*product.Product, error) {
	var p product.Product
	if err := c.doJSON(ctx, http.MethodGet, "/products/"+url.PathEscape(id), "", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Banners(ctx context.Context, typ banner.Type) ([]*banner.Banner, error) {
	var out []*banner.Banner
	q := url.Values{"type": {string(typ)}}
	if err := c.doJSON(ctx, http.MethodGet, withQuery("/banners", q), "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Categories(ctx context.Context) ([]*category.Category, error) {
	var page httpx.Page[*category.Category]
	if err := c.doJSON(ctx, http.MethodGet, "/categories?limit=100", "", nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (c *Client) Manufacturers(ctx context.Context) ([]*manufacturer.Manufacturer, error) {
	var page httpx.Page[*manufacturer.Manufacturer]
	if err := c.doJSON(ctx, http.MethodGet, "/manufacturers?limit=100", "", nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*user.LoginResult, error) {
	var res user.LoginResult
	in := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", in, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) CreateOrder(ctx context.Context, token string, in order.CreateInput) (*order.CreateResult, error) {
	var res order.CreateResult
	if err := c.doJSON(ctx, http.MethodPost, "/orders", token, in, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) CreateProduct(ctx context.Context, token string, in product.CreateInput) (*product.Product, error) {
	var p product.Product
	if err := c.doJSON(ctx, http.MethodPost, "/products", token, in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProduct(ctx context.Context, token, id string, in product.UpdateInput) (*product.Product, error) {
	var p product.Product
	if err := c.doJSON(ctx, http.MethodPatch, "/products/"+url.PathEscape(id), token, in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeleteProduct(ctx context.Context, token, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), token, nil, nil)
}

// Upload forwards an image to the backend's media proxy.
func (c *Client) Upload(ctx context.Context, token, filename string, content []byte) (*upload.Result, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var res upload.Result
	if err := c.do(ctx, http.MethodPost, "/upload", token, &body, mw.FormDataContentType(), &res); err != nil {
		return nil, err
	}
	return &res, nil
}
