package logger

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type scopeKey struct{}

// requestScope is shared by every handler of one request, so fields added
// deep in the chain still show up in the access log line.
type requestScope struct {
	id     string
	mu     sync.Mutex
	fields []zap.Field
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, scopeKey{}, &requestScope{id: requestID})
}

func scopeOf(ctx context.Context) *requestScope {
	s, _ := ctx.Value(scopeKey{}).(*requestScope)
	return s
}

func RequestIDFrom(ctx context.Context) string {
	if s := scopeOf(ctx); s != nil {
		return s.id
	}
	return ""
}

// AddFields attaches fields to every later log line of the request. Outside
// a request scope it does nothing.
func AddFields(ctx context.Context, fields ...zap.Field) {
	s := scopeOf(ctx)
	if s == nil {
		return
	}
	s.mu.Lock()
	s.fields = append(s.fields, fields...)
	s.mu.Unlock()
}

// FromCtx returns the global logger with the request id and any request
// fields added.
func FromCtx(ctx context.Context) *zap.Logger {
	s := scopeOf(ctx)
	if s == nil {
		return L()
	}

	s.mu.Lock()
	fields := make([]zap.Field, 0, len(s.fields)+1)
	fields = append(fields, zap.String("request_id", s.id))
	fields = append(fields, s.fields...)
	s.mu.Unlock()

	return L().With(fields...)
}
