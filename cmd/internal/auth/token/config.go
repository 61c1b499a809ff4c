package token

import (
	"os"
	"strings"
	"time"
)

// minSecretBytes is the floor for the HMAC-SHA256 signing secret. The key is
// used as raw bytes, so bytes are what get measured.
const minSecretBytes = 32

// Config defines runtime configuration for the token codec.
//
// It is loaded once at process start and never mutated afterwards; the codec
// never reads ambient state during verification.
type Config struct {
	// Issuer is the value set in the "iss" claim.
	Issuer string

	// TTL is the lifetime of issued tokens. Every token carries a finite expiry.
	TTL time.Duration

	// ClockSkew is the allowed time skew during validation.
	ClockSkew time.Duration

	// SecretKey is the process-wide HMAC-SHA256 signing secret.
	SecretKey []byte
}

// DefaultConfig returns defaults suitable for development. The secret has
// no default; callers must supply one.
func DefaultConfig() Config {
	return Config{
		Issuer:    "gatehouse",
		TTL:       7 * 24 * time.Hour,
		ClockSkew: 30 * time.Second,
	}
}

// LoadConfigFromEnv loads token configuration from environment variables.
//
// Required:
//   - GATEHOUSE_AUTH_TOKEN_SECRET (>= 32 bytes)
//
// Optional (durations must be valid Go duration strings):
//   - GATEHOUSE_AUTH_ISSUER
//   - GATEHOUSE_AUTH_TOKEN_TTL
//   - GATEHOUSE_AUTH_CLOCK_SKEW
//
// Returns ErrConfig if configuration is invalid. An absent or short secret
// is ErrConfig; there is no built-in fallback secret.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("GATEHOUSE_AUTH_ISSUER")); v != "" {
		cfg.Issuer = v
	}

	if v := strings.TrimSpace(os.Getenv("GATEHOUSE_AUTH_TOKEN_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.TTL = d
	}

	if v := strings.TrimSpace(os.Getenv("GATEHOUSE_AUTH_CLOCK_SKEW")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.ClockSkew = d
	}

	secret := os.Getenv("GATEHOUSE_AUTH_TOKEN_SECRET")
	if len(secret) < minSecretBytes {
		return Config{}, ErrConfig
	}
	cfg.SecretKey = []byte(secret)

	return cfg, nil
}
