package auth

import (
	"net/http"
	"strings"
)

// AccessTokenCookie is shared by the API and the storefront admin.
const AccessTokenCookie = "access_token"

// ExtractAccessToken reads the token from the cookie, then from an
// "Authorization: Bearer" header.
func ExtractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// BearerHeader formats token for an outgoing Authorization header.
func BearerHeader(token string) string {
	return "Bearer " + token
}
