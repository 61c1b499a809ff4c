package app

import (
	"crypto/rand"
	"errors"
	"fmt"

	"gatehouse/cmd/internal/auth/token"
)

// resolveTokenConfig loads the signing config and applies the startup
// security policy.
//
// With GATEHOUSE_AUTH_TOKEN_SECRET set (>= 32 bytes) the env config is used
// as-is. Without it, a process-local random secret is generated only when
// running against the in-memory dev store and GATEHOUSE_REQUIRE_TOKEN_SECRET
// is false; every session then dies with the process. Any configured
// database, or the policy flag, makes the missing secret fatal.
func resolveTokenConfig(cfg Config, log Logger) (token.Config, error) {
	tcfg, err := token.LoadConfigFromEnv()
	if err == nil {
		return tcfg, nil
	}
	if !errors.Is(err, token.ErrConfig) {
		return token.Config{}, err
	}

	if cfg.RequireTokenSecret {
		return token.Config{}, fmt.Errorf("security policy: GATEHOUSE_REQUIRE_TOKEN_SECRET=true but GATEHOUSE_AUTH_TOKEN_SECRET is missing or too short (min 32 bytes)")
	}
	if cfg.MongoURI != "" {
		return token.Config{}, fmt.Errorf("security policy: GATEHOUSE_AUTH_TOKEN_SECRET is required when a database is configured (min 32 bytes)")
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return token.Config{}, err
	}

	log.Warn("auth.secret.ephemeral",
		"reason", "GATEHOUSE_AUTH_TOKEN_SECRET not set",
		"effect", "all sessions invalid after restart",
	)

	tcfg = token.DefaultConfig()
	tcfg.SecretKey = secret
	return tcfg, nil
}
