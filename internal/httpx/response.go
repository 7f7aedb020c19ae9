package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"pcshop/internal/apperror"
	"pcshop/internal/logger"

	"go.uber.org/zap"
)

// Envelope is the shape of every API response body.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

// Page wraps list results with paging metadata.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

const maxBodyBytes = 1 << 20

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func OK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Envelope{StatusCode: http.StatusOK, Message: "success", Data: data})
}

func Created(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Envelope{StatusCode: http.StatusCreated, Message: "created", Data: data})
}

func Message(w http.ResponseWriter, code int, message string) {
	WriteJSON(w, code, Envelope{StatusCode: code, Message: message})
}

// StatusFor maps a domain error code to an HTTP status.
func StatusFor(code apperror.Code) int {
	switch code {
	case apperror.BadRequest:
		return http.StatusBadRequest
	case apperror.Unauthorized:
		return http.StatusUnauthorized
	case apperror.Forbidden:
		return http.StatusForbidden
	case apperror.NotFound:
		return http.StatusNotFound
	case apperror.Conflict:
		return http.StatusConflict
	case apperror.BadGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as an envelope. Errors without a domain code are logged
// and reported as a generic 500.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	code := apperror.CodeOf(err)
	status := StatusFor(code)

	message := apperror.MessageOf(err)
	if code == apperror.Internal || message == "" {
		logger.FromCtx(r.Context()).Error("unhandled error",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		message = http.StatusText(http.StatusInternalServerError)
	}

	Message(w, status, message)
}

var ErrInvalidJSON = apperror.Invalid("invalid JSON body")

// Decode reads a JSON body into dst, rejecting unknown fields.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.Invalid("request body is empty")
		}
		return apperror.Wrap(apperror.BadRequest, ErrInvalidJSON.Message, err)
	}
	return nil
}

// QueryInt parses an integer query parameter, falling back to def.
func QueryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// QueryString returns a pointer to a non-empty query parameter.
func QueryString(r *http.Request, key string) *string {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	return &v
}

// QueryBool returns a pointer to a boolean query parameter.
func QueryBool(r *http.Request, key string) *bool {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

// ParseUintID parses a numeric path identifier.
func ParseUintID(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, apperror.Invalid("invalid id")
	}
	return uint(n), nil
}
