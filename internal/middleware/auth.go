package middleware

import (
	"net/http"
	"strings"

	"pcshop/internal/apperror"
	"pcshop/internal/auth"
	"pcshop/internal/httpx"
	"pcshop/internal/logger"
	"pcshop/internal/user"
	"pcshop/internal/utils"

	"go.uber.org/zap"
)

var (
	ErrMissingToken = apperror.New(apperror.Unauthorized, "missing access token")
	ErrInvalidToken = apperror.New(apperror.Unauthorized, "invalid or expired token")
	ErrForbidden    = apperror.New(apperror.Forbidden, "forbidden")
)

type TokenParser interface {
	Parse(token string) (*user.CustomClaims, error)
}

// publicGetPrefixes are readable without a token.
var publicGetPrefixes = []string{
	"/categories",
	"/manufacturers",
	"/products",
	"/banners",
}

// IsPublic reports whether r may be served without authentication.
func IsPublic(r *http.Request) bool {
	path := strings.TrimSuffix(r.URL.Path, "/")

	if path == "/health" || strings.HasPrefix(path, "/auth/") {
		return true
	}
	if r.Method == http.MethodPost && path == "/orders" {
		return true
	}
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		for _, p := range publicGetPrefixes {
			if path == p || strings.HasPrefix(path, p+"/") {
				return true
			}
		}
	}
	return false
}

// Authenticate attaches the caller identity from the access token. Public
// routes accept anonymous callers and ignore unusable tokens.
func Authenticate(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			public := IsPublic(r)

			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				if public {
					next.ServeHTTP(w, r)
					return
				}
				httpx.Error(w, r, ErrMissingToken)
				return
			}

			claims, err := tokens.Parse(tokenStr)
			if err != nil {
				if public {
					next.ServeHTTP(w, r)
					return
				}
				logger.FromCtx(r.Context()).Info("rejected access token", zap.Error(err))
				httpx.Error(w, r, ErrInvalidToken)
				return
			}

			ctx := utils.SetUserContext(r.Context(), claims.UserID, claims.Email, claims.Role)
			logger.AddFields(ctx, zap.Uint("user_id", claims.UserID), zap.String("role", claims.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole lets through only authenticated callers holding role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
				httpx.Error(w, r, ErrMissingToken)
				return
			}
			if utils.GetUserRoleFromContext(r.Context()) != role {
				httpx.Error(w, r, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser rejects anonymous callers on routes that are otherwise public.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
			httpx.Error(w, r, ErrMissingToken)
			return
		}
		next.ServeHTTP(w, r)
	})
}
