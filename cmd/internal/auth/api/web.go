package authapi

import (
	"net/http"
	"strings"
	"time"
)

// The session carrier: one fixed-name cookie plus an Authorization header.
// The cookie is never script-readable and is scoped to the root path; the
// Secure flag follows configuration so local demos work over plain HTTP.

func (h *Handler) setAuthCookie(w http.ResponseWriter, tokenStr string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    tokenStr,
		Path:     h.cfg.CookiePath,
		Expires:  exp,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: cookieSameSite,
	})
}

func (h *Handler) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     h.cfg.CookiePath,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: cookieSameSite,
	})
}

// tokenFromRequest extracts the session token, preferring a bearer header
// over the cookie. Empty string means absent; absence is not an error here,
// callers decide whether it is.
func (h *Handler) tokenFromRequest(r *http.Request) string {
	if tok := bearerToken(r); tok != "" {
		return tok
	}
	c, err := r.Cookie(h.cfg.CookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
