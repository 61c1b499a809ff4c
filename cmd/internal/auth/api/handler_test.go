package authapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"gatehouse/cmd/identity"
	"gatehouse/cmd/internal/auth/token"
	"gatehouse/cmd/security/password"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// countingStore wraps the in-memory store and counts every lookup so tests
// can assert that rejected input never reaches persistence.
type countingStore struct {
	*identity.MemoryStore
	lookups int
}

func (c *countingStore) GetUserByEmail(ctx context.Context, email string) (identity.User, error) {
	c.lookups++
	return c.MemoryStore.GetUserByEmail(ctx, email)
}

func (c *countingStore) GetUserByID(ctx context.Context, id string) (identity.User, error) {
	c.lookups++
	return c.MemoryStore.GetUserByID(ctx, id)
}

func (c *countingStore) FindUserRaw(ctx context.Context, filter map[string]any) (identity.User, error) {
	c.lookups++
	return c.MemoryStore.FindUserRaw(ctx, filter)
}

func newTestHandler(t *testing.T, vulnerable bool) (*http.ServeMux, *countingStore) {
	t.Helper()

	st := &countingStore{MemoryStore: identity.NewMemoryStore()}

	cfg := LoadConfigFromEnv()
	cfg.VulnerableLoginEnabled = vulnerable

	pw := password.DefaultConfig()
	pw.Cost = bcrypt.MinCost

	tcfg := token.DefaultConfig()
	tcfg.SecretKey = []byte(testSecret)
	codec, err := token.NewCodec(tcfg)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h, err := NewHandler(log, cfg, st, pw, codec)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	mux := http.NewServeMux()
	h.Register(mux)
	return mux, st
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, body string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	if mutate != nil {
		mutate(r)
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, r)
	return rr
}

func signupAnn(t *testing.T, mux *http.ServeMux) *httptest.ResponseRecorder {
	t.Helper()
	rr := doJSON(t, mux, http.MethodPost, "/auth/signup",
		`{"fullName":"Ann","email":"a@x.com","password":"secret1","confirmPassword":"secret1"}`, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	return rr
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == "gatehouse_token" {
			return c
		}
	}
	t.Fatalf("session cookie not set")
	return nil
}

func TestSignup_SuccessAndDuplicate(t *testing.T) {
	mux, _ := newTestHandler(t, false)

	rr := signupAnn(t, mux)

	var profile map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile["fullName"] != "Ann" || profile["email"] != "a@x.com" {
		t.Fatalf("unexpected profile: %v", profile)
	}
	if profile["id"] == "" || profile["id"] == nil {
		t.Fatalf("profile missing id")
	}
	if strings.Contains(strings.ToLower(rr.Body.String()), "password") {
		t.Fatalf("profile must never carry the password secret: %s", rr.Body.String())
	}

	c := sessionCookie(t, rr)
	if c.Value == "" {
		t.Fatalf("session cookie has no token")
	}

	// Same signup again conflicts.
	rr = doJSON(t, mux, http.MethodPost, "/auth/signup",
		`{"fullName":"Ann","email":"a@x.com","password":"secret1","confirmPassword":"secret1"}`, nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate signup, got %d", rr.Code)
	}
}

func TestSignup_Validation(t *testing.T) {
	mux, _ := newTestHandler(t, false)

	cases := []struct {
		name string
		body string
	}{
		{"missing field", `{"fullName":"Ann","email":"a@x.com","password":"secret1"}`},
		{"empty full name", `{"fullName":"  ","email":"a@x.com","password":"secret1","confirmPassword":"secret1"}`},
		{"confirm mismatch", `{"fullName":"Ann","email":"a@x.com","password":"secret1","confirmPassword":"secret2"}`},
		{"short password", `{"fullName":"Ann","email":"a@x.com","password":"abc","confirmPassword":"abc"}`},
		{"object-shaped email", `{"fullName":"Ann","email":{"$ne":null},"password":"secret1","confirmPassword":"secret1"}`},
		{"not json", `not json at all`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, mux, http.MethodPost, "/auth/signup", tc.body, nil)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestLogin_Success(t *testing.T) {
	mux, _ := newTestHandler(t, false)
	signupAnn(t, mux)

	rr := doJSON(t, mux, http.MethodPost, "/auth/login",
		`{"email":"A@X.com","password":"secret1"}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var profile map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile["email"] != "a@x.com" {
		t.Fatalf("expected normalized email in profile, got %v", profile["email"])
	}
	if c := sessionCookie(t, rr); c.Value == "" {
		t.Fatalf("login must attach a session cookie")
	}
}

func TestLogin_InvalidCredentialsAreIndistinguishable(t *testing.T) {
	mux, _ := newTestHandler(t, false)
	signupAnn(t, mux)

	unknown := doJSON(t, mux, http.MethodPost, "/auth/login",
		`{"email":"nobody@x.com","password":"secret1"}`, nil)
	wrongPw := doJSON(t, mux, http.MethodPost, "/auth/login",
		`{"email":"a@x.com","password":"wrong-password"}`, nil)

	if unknown.Code != http.StatusUnauthorized || wrongPw.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", unknown.Code, wrongPw.Code)
	}
	if unknown.Body.String() != wrongPw.Body.String() {
		t.Fatalf("unknown-email and wrong-password responses must be identical:\n%s\n%s",
			unknown.Body.String(), wrongPw.Body.String())
	}
}

func TestLogin_GuardBlocksOperatorPayloadBeforeStore(t *testing.T) {
	mux, st := newTestHandler(t, false)
	signupAnn(t, mux)
	st.lookups = 0

	cases := []string{
		`{"email":{"$ne":null},"password":{"$ne":null}}`,
		`{"email":["a@x.com"],"password":"secret1"}`,
		`{"email":"a@x.com","password":{"$gt":""}}`,
		`{"email":42,"password":"secret1"}`,
		`{"email":null,"password":"secret1"}`,
	}
	for _, body := range cases {
		rr := doJSON(t, mux, http.MethodPost, "/auth/login", body, nil)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("guarded login must reject %s with 400, got %d", body, rr.Code)
		}
	}
	if st.lookups != 0 {
		t.Fatalf("rejected input must never reach the store; %d lookups happened", st.lookups)
	}
}

func TestLoginVulnerable_AbsentByDefault(t *testing.T) {
	mux, _ := newTestHandler(t, false)
	signupAnn(t, mux)

	rr := doJSON(t, mux, http.MethodPost, "/auth/login-vulnerable",
		`{"email":{"$ne":null},"password":{"$ne":null}}`, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("vulnerable route must not exist by default, got %d", rr.Code)
	}
}

func TestLoginVulnerable_InjectionBypassesAuthentication(t *testing.T) {
	mux, _ := newTestHandler(t, true)
	signupAnn(t, mux)

	// No credential knowledge at all: operator documents for both fields.
	rr := doJSON(t, mux, http.MethodPost, "/auth/login-vulnerable",
		`{"email":{"$ne":null},"password":{"$ne":null}}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected injection to bypass authentication, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["email"] != "a@x.com" {
		t.Fatalf("expected the seeded account to be exposed, got %v", resp["email"])
	}
	if resp["warning"] == nil {
		t.Fatalf("vulnerable response should carry its warning banner")
	}
	if c := sessionCookie(t, rr); c.Value == "" {
		t.Fatalf("injection even yields a valid session cookie")
	}

	// Correct credentials still work through the same endpoint.
	rr = doJSON(t, mux, http.MethodPost, "/auth/login-vulnerable",
		`{"email":"a@x.com","password":"secret1"}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for valid credentials, got %d", rr.Code)
	}

	// A wrong string password is still checked.
	rr = doJSON(t, mux, http.MethodPost, "/auth/login-vulnerable",
		`{"email":"a@x.com","password":"wrong-password"}`, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong string password, got %d", rr.Code)
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	mux, _ := newTestHandler(t, false)

	rr := doJSON(t, mux, http.MethodPost, "/auth/logout", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp okResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil || !resp.OK {
		t.Fatalf("expected {\"ok\":true}, got %s", rr.Body.String())
	}

	c := sessionCookie(t, rr)
	if c.Value != "" || c.MaxAge >= 0 {
		t.Fatalf("logout must expire the cookie, got value=%q max-age=%d", c.Value, c.MaxAge)
	}
}

func TestMe_TokenLifecycle(t *testing.T) {
	mux, _ := newTestHandler(t, false)
	signup := signupAnn(t, mux)
	cookie := sessionCookie(t, signup)

	// No token at all.
	rr := doJSON(t, mux, http.MethodGet, "/auth/me", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	// Cookie transport.
	rr = doJSON(t, mux, http.MethodGet, "/auth/me", "", func(r *http.Request) {
		r.AddCookie(cookie)
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 via cookie, got %d: %s", rr.Code, rr.Body.String())
	}

	// Bearer transport.
	rr = doJSON(t, mux, http.MethodGet, "/auth/me", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+cookie.Value)
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 via bearer, got %d", rr.Code)
	}

	// Garbage token.
	rr = doJSON(t, mux, http.MethodGet, "/auth/me", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer not-a-token")
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", rr.Code)
	}
}

func TestMe_BearerTakesPrecedenceOverCookie(t *testing.T) {
	mux, _ := newTestHandler(t, false)

	ann := signupAnn(t, mux)
	annCookie := sessionCookie(t, ann)

	bob := doJSON(t, mux, http.MethodPost, "/auth/signup",
		`{"fullName":"Bob","email":"b@x.com","password":"secret2","confirmPassword":"secret2"}`, nil)
	if bob.Code != http.StatusCreated {
		t.Fatalf("bob signup: %d", bob.Code)
	}
	bobCookie := sessionCookie(t, bob)

	rr := doJSON(t, mux, http.MethodGet, "/auth/me", "", func(r *http.Request) {
		r.AddCookie(annCookie)
		r.Header.Set("Authorization", "Bearer "+bobCookie.Value)
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var profile map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile["email"] != "b@x.com" {
		t.Fatalf("bearer header must win over cookie, got %v", profile["email"])
	}
}

func TestMe_ExpiredToken(t *testing.T) {
	mux, _ := newTestHandler(t, false)
	signupAnn(t, mux)

	// Sign a token under the same secret but already expired, with no skew.
	tcfg := token.DefaultConfig()
	tcfg.SecretKey = []byte(testSecret)
	tcfg.ClockSkew = 0
	tcfg.TTL = time.Nanosecond
	codec, err := token.NewCodec(tcfg)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	expired, _, err := codec.Issue("some-user", "a@x.com", time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	rr := doJSON(t, mux, http.MethodGet, "/auth/me", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+expired)
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rr.Code)
	}
}

func TestMe_AccountGone(t *testing.T) {
	mux, _ := newTestHandler(t, false)

	// Valid token whose subject was never stored.
	tcfg := token.DefaultConfig()
	tcfg.SecretKey = []byte(testSecret)
	codec, err := token.NewCodec(tcfg)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	tok, _, err := codec.Issue("01HGONEGONEGONEGONEGONEGONE", "ghost@x.com", time.Now().UTC())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	rr := doJSON(t, mux, http.MethodGet, "/auth/me", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tok)
	})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for vanished account, got %d", rr.Code)
	}
}

func TestLogout_DoesNotRevokeBearerToken(t *testing.T) {
	mux, _ := newTestHandler(t, false)
	signup := signupAnn(t, mux)
	tok := sessionCookie(t, signup).Value

	if rr := doJSON(t, mux, http.MethodPost, "/auth/logout", "", nil); rr.Code != http.StatusOK {
		t.Fatalf("logout: %d", rr.Code)
	}

	// Logout cleared the cookie, not the token: a kept bearer still works
	// until expiry. This is a deliberate property of the design, not a bug.
	rr := doJSON(t, mux, http.MethodGet, "/auth/me", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tok)
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpired bearer must survive logout, got %d", rr.Code)
	}
}
