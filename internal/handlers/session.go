package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/cliptube/backend/internal/auth"
)

const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

// sessionToken extracts the access token from the request. The session cookie
// takes precedence over the Authorization header so browser clients keep
// working even when a stale header is attached.
func sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(accessCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// refreshTokenFrom extracts the refresh token from the session cookie, falling
// back to the decoded request body value.
func refreshTokenFrom(r *http.Request, bodyToken string) string {
	if cookie, err := r.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return strings.TrimSpace(bodyToken)
}

// authenticate resolves the caller's identity or fails with ErrInvalidToken
// when no usable credential is attached.
func authenticate(sessions SessionService, r *http.Request) (auth.AccessClaims, error) {
	token := sessionToken(r)
	if token == "" {
		return auth.AccessClaims{}, auth.ErrInvalidToken
	}
	return sessions.ValidateAccess(token)
}

// maybeAuthenticate resolves the caller's identity when a credential is
// attached. An absent or invalid credential yields an anonymous viewer rather
// than an error.
func maybeAuthenticate(sessions SessionService, r *http.Request) (auth.AccessClaims, bool) {
	token := sessionToken(r)
	if token == "" {
		return auth.AccessClaims{}, false
	}
	claims, err := sessions.ValidateAccess(token)
	if err != nil {
		return auth.AccessClaims{}, false
	}
	return claims, true
}

// setSessionCookies attaches the freshly issued pair as http-only cookies.
func setSessionCookies(w http.ResponseWriter, accessToken string, accessExpires time.Time, refreshToken string, refreshExpires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessCookieName,
		Value:    accessToken,
		Path:     "/",
		Expires:  accessExpires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    refreshToken,
		Path:     "/",
		Expires:  refreshExpires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookies expires both session cookies.
func clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{accessCookieName, refreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
