package password

import (
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Policy bounds accepted plaintext lengths.
type Policy struct {
	// MinLength counts runes, to be user-friendly with non-ASCII passwords.
	MinLength int
	// MaxLength counts bytes: bcrypt only consumes the first 72 bytes, and
	// silently truncating is worse than rejecting.
	MaxLength int
}

// Config holds the bcrypt work factor and the password policy.
type Config struct {
	Cost   int
	Policy Policy
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Cost: 12,
		Policy: Policy{
			MinLength: 6,
			MaxLength: 72,
		},
	}
}

// FromEnv loads Config from environment variables with defaults and clamps.
//
// Optional:
//   - GATEHOUSE_PASSWORD_COST (bcrypt cost, clamped to [bcrypt.MinCost, bcrypt.MaxCost])
//   - GATEHOUSE_PASSWORD_MIN_LENGTH
//   - GATEHOUSE_PASSWORD_MAX_LENGTH
func FromEnv() Config {
	cfg := DefaultConfig()

	if n, ok := envPositiveInt("GATEHOUSE_PASSWORD_COST"); ok {
		cfg.Cost = n
	}
	if n, ok := envPositiveInt("GATEHOUSE_PASSWORD_MIN_LENGTH"); ok {
		cfg.Policy.MinLength = n
	}
	if n, ok := envPositiveInt("GATEHOUSE_PASSWORD_MAX_LENGTH"); ok {
		cfg.Policy.MaxLength = n
	}

	// Clamp to keep the config usable no matter what env says.
	if cfg.Cost < bcrypt.MinCost {
		cfg.Cost = bcrypt.MinCost
	}
	if cfg.Cost > bcrypt.MaxCost {
		cfg.Cost = bcrypt.MaxCost
	}
	if cfg.Policy.MinLength < 1 {
		cfg.Policy.MinLength = 1
	}
	if cfg.Policy.MaxLength > 72 || cfg.Policy.MaxLength <= 0 {
		cfg.Policy.MaxLength = 72
	}
	if cfg.Policy.MinLength > cfg.Policy.MaxLength {
		cfg.Policy.MinLength = cfg.Policy.MaxLength
	}

	return cfg
}

func envPositiveInt(key string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
