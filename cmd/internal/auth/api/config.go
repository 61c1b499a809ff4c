package authapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls auth API behavior and security defaults.
type Config struct {
	MaxBodyBytes int64

	// StoreTimeout bounds each persistence call so slow lookups surface as a
	// server fault instead of hanging the request.
	StoreTimeout time.Duration

	// Session cookie attributes. The cookie is always HttpOnly and
	// SameSite=Lax; only the Secure flag is environment-dependent.
	CookieName   string
	CookiePath   string
	CookieSecure bool

	// VulnerableLoginEnabled exposes POST /auth/login-vulnerable, the
	// intentionally injectable lookup path. Off by default; educational
	// deployments must opt in explicitly.
	VulnerableLoginEnabled bool
}

// LoadConfigFromEnv loads auth API config from environment variables with
// safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		MaxBodyBytes: envInt64("GATEHOUSE_AUTH_MAX_BODY_BYTES", 1<<20), // 1 MiB
		StoreTimeout: envDuration("GATEHOUSE_AUTH_STORE_TIMEOUT", 5*time.Second),

		CookieName:   envString("GATEHOUSE_AUTH_COOKIE_NAME", "gatehouse_token"),
		CookiePath:   "/",
		CookieSecure: envBool("GATEHOUSE_AUTH_COOKIE_SECURE", false),

		VulnerableLoginEnabled: envBool("GATEHOUSE_AUTH_ENABLE_VULNERABLE_LOGIN", false),
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}
	if strings.TrimSpace(cfg.CookieName) == "" {
		cfg.CookieName = "gatehouse_token"
	}

	return cfg
}

// cookieSameSite is fixed: the session cookie is sent only on same-site
// navigation plus top-level GETs, matching the demo front end.
const cookieSameSite = http.SameSiteLaxMode

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
