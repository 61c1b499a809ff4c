package authapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"gatehouse/cmd/identity"
	"gatehouse/cmd/internal/auth/token"
	"gatehouse/cmd/security/guard"
	"gatehouse/cmd/security/password"
)

// Handler wires HTTP auth endpoints to the identity store, hasher and codec.
//
// Flow order inside every handler is fixed: guard, store, hasher, codec,
// carrier. Validation always finishes before the first persistence call.
type Handler struct {
	log   *slog.Logger
	cfg   Config
	store identity.Store
	pw    password.Config
	codec *token.Codec

	// raw is non-nil only when the vulnerable login is enabled and the store
	// exposes an unguarded lookup.
	raw identity.RawLookup

	dummyHash string
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, store identity.Store, pw password.Config, codec *token.Codec) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if store == nil {
		return nil, errors.New("auth: nil identity store")
	}
	if codec == nil {
		return nil, errors.New("auth: nil token codec")
	}

	h := &Handler{
		log:   log,
		cfg:   cfg,
		store: store,
		pw:    pw,
		codec: codec,
	}

	if cfg.VulnerableLoginEnabled {
		rl, ok := store.(identity.RawLookup)
		if !ok {
			return nil, errors.New("auth: vulnerable login enabled but store has no raw lookup")
		}
		h.raw = rl
	}

	// Dummy hash for timing-resistant login checks on unknown emails.
	if hash, err := pw.Hash("dummy-password-for-timing-only"); err == nil {
		h.dummyHash = hash
	}

	return h, nil
}

// Register wires auth routes onto the provided mux.
//
// The vulnerable route does not exist at all unless explicitly enabled: a
// default deployment answers it with 404.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/auth/signup", h.handleSignup)
	mux.HandleFunc("/auth/login", h.handleLogin)
	mux.HandleFunc("/auth/logout", h.handleLogout)
	mux.HandleFunc("/auth/me", h.handleMe)

	if h.raw != nil {
		h.log.Warn("auth.vulnerable_login.enabled",
			"route", "/auth/login-vulnerable",
			"note", "unguarded credential lookup is reachable; never enable in production")
		mux.HandleFunc("/auth/login-vulnerable", h.handleLoginVulnerable)
	}
}

// ---- handlers ----

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req signupRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid request body")
		return
	}

	fullName := identity.NormalizeFullName(req.FullName)
	email := identity.NormalizeEmail(req.Email)
	if fullName == "" || email == "" || req.Password == "" || req.ConfirmPassword == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "all fields are required")
		return
	}
	if req.Password != req.ConfirmPassword {
		writeError(w, http.StatusBadRequest, "validation_error", "passwords do not match")
		return
	}
	if err := h.pw.Validate(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "password does not meet the length policy")
		return
	}

	ctx, cancel := h.storeCtx(r)
	defer cancel()

	_, err := h.store.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		writeError(w, http.StatusConflict, "duplicate_credential", "email already in use")
		return
	case identity.IsNotFound(err):
		// Address is free; continue.
	default:
		h.log.Error("auth.signup.lookup.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	hash, err := h.pw.Hash(req.Password)
	if err != nil {
		h.log.Error("auth.signup.hash.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	now := time.Now().UTC()
	u, err := h.store.CreateUser(ctx, identity.CreateUserInput{
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Now:          now,
	})
	if err != nil {
		switch {
		case identity.IsConflict(err):
			// Raced with another signup for the same address; the unique
			// index is the authority.
			writeError(w, http.StatusConflict, "duplicate_credential", "email already in use")
		case identity.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "validation_error", "invalid input")
		default:
			h.log.Error("auth.signup.create.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	h.issueSession(w, u, now, http.StatusCreated)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid request body")
		return
	}

	// Guard first: anything that is not a plain, well-formed string credential
	// is rejected here, before a query could be built from it.
	email, err := guard.Email(req.Email)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", guardMessage(err))
		return
	}
	pass, err := guard.Password(req.Password, h.pw.Policy.MinLength)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", guardMessage(err))
		return
	}

	ctx, cancel := h.storeCtx(r)
	defer cancel()

	u, err := h.store.GetUserByEmail(ctx, email)
	if err != nil {
		if identity.IsNotFound(err) {
			// Timing resistance: burn a verify so an unknown email costs the
			// same as a wrong password, and answer identically.
			if h.dummyHash != "" {
				_, _ = h.pw.Verify(h.dummyHash, pass)
			}
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
			return
		}
		h.log.Error("auth.login.lookup.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	ok, err := h.pw.Verify(u.PasswordHash, pass)
	if err != nil && !errors.Is(err, password.ErrInvalidHash) {
		h.log.Error("auth.login.verify.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	// A malformed stored secret counts as a mismatch toward the caller; the
	// response must not distinguish unknown email, wrong password or broken
	// hash.
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		return
	}

	h.issueSession(w, u, time.Now().UTC(), http.StatusOK)
}

// handleLoginVulnerable is the intentionally injectable credential lookup.
//
// It forwards raw request values into the query layer, so an email shaped
// like {"$ne": null} matches any record with an email, and a non-string
// password skips the hash check entirely. Registered only behind the
// explicit opt-in flag; it exists to demonstrate what the guarded path
// prevents.
func (h *Handler) handleLoginVulnerable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req vulnerableLoginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid request body")
		return
	}
	if req.Email == nil || req.Password == nil {
		writeError(w, http.StatusBadRequest, "validation_error", "email and password are required")
		return
	}

	ctx, cancel := h.storeCtx(r)
	defer cancel()

	u, err := h.raw.FindUserRaw(ctx, map[string]any{
		"email":         req.Email,
		"password_hash": map[string]any{"$exists": true},
	})
	if err != nil {
		if identity.IsNotFound(err) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
			return
		}
		h.log.Error("auth.login_vulnerable.lookup.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	// The hash check only runs when the password is a plain string; an
	// operator document sails past it.
	if pass, isString := req.Password.(string); isString {
		ok, err := h.pw.Verify(u.PasswordHash, pass)
		if err != nil && !errors.Is(err, password.ErrInvalidHash) {
			h.log.Error("auth.login_vulnerable.verify.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
			return
		}
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
			return
		}
	}

	h.log.Warn("auth.login_vulnerable.success", "user_id", u.ID)

	now := time.Now().UTC()
	tok, exp, err := h.codec.Issue(u.ID, u.Email, now)
	if err != nil {
		h.log.Error("auth.login_vulnerable.token.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	h.setAuthCookie(w, tok, exp)
	writeJSON(w, http.StatusOK, vulnerableLoginResponse{
		profileResponse: toProfileResponse(u),
		Warning:         "this endpoint is intentionally vulnerable to NoSQL injection; demonstration only",
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Logout only clears the carrier. An already-issued token stays valid
	// until it expires; there is no server-side revocation state.
	h.clearAuthCookie(w)
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	tok := h.tokenFromRequest(r)
	if tok == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing token")
		return
	}

	// Invalid signature and expiry collapse into one outcome.
	claims, err := h.codec.Verify(tok, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
		return
	}

	ctx, cancel := h.storeCtx(r)
	defer cancel()

	u, err := h.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if identity.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		h.log.Error("auth.me.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(u))
}

// ---- helpers ----

// storeCtx bounds persistence and hashing work for one request so a slow
// backend surfaces as a server fault instead of a hang.
func (h *Handler) storeCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.cfg.StoreTimeout)
}

// issueSession signs a token for the account, attaches the session cookie and
// writes the public profile.
func (h *Handler) issueSession(w http.ResponseWriter, u identity.User, now time.Time, status int) {
	tok, exp, err := h.codec.Issue(u.ID, u.Email, now)
	if err != nil {
		h.log.Error("auth.token.issue.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	h.setAuthCookie(w, tok, exp)
	writeJSON(w, status, toProfileResponse(u))
}

func guardMessage(err error) string {
	switch {
	case errors.Is(err, guard.ErrNotAString):
		return "email and password must be plain strings"
	case errors.Is(err, guard.ErrBadEmail):
		return "invalid email format"
	case errors.Is(err, guard.ErrPasswordTooShort):
		return "password is too short"
	default:
		return "email and password are required"
	}
}
