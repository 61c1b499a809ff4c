package authapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSessionCookieAttributes(t *testing.T) {
	mux, _ := newTestHandler(t, false)
	rr := signupAnn(t, mux)

	c := sessionCookie(t, rr)
	if !c.HttpOnly {
		t.Fatalf("session cookie must be HttpOnly")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("expected SameSite=Lax, got %v", c.SameSite)
	}
	if c.Path != "/" {
		t.Fatalf("expected Path=/, got %q", c.Path)
	}
	if c.Secure {
		t.Fatalf("Secure must be off under the default config")
	}
	if c.Expires.IsZero() {
		t.Fatalf("session cookie should carry the token expiry")
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"absent", "", ""},
		{"well formed", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"case insensitive scheme", "bearer abc", "abc"},
		{"wrong scheme", "Basic abc", ""},
		{"scheme only", "Bearer", ""},
		{"scheme with blank token", "Bearer   ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			if got := bearerToken(r); got != tc.want {
				t.Fatalf("bearerToken(%q) = %q, want %q", tc.header, got, tc.want)
			}
		})
	}
}
