package password

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func testConfig() Config {
	cfg := DefaultConfig()
	// MinCost keeps the suite fast; production cost is env-driven.
	cfg.Cost = bcrypt.MinCost
	return cfg
}

func TestHashVerify_RoundTrip(t *testing.T) {
	cfg := testConfig()

	hash, err := cfg.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "secret1" || strings.Contains(hash, "secret1") {
		t.Fatalf("hash must not contain the plaintext")
	}

	ok, err := cfg.Verify(hash, "secret1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected match")
	}

	ok, err = cfg.Verify(hash, "secret2")
	if err != nil {
		t.Fatalf("Verify mismatch: %v", err)
	}
	if ok {
		t.Fatalf("expected mismatch")
	}
}

func TestHash_FreshSaltPerCall(t *testing.T) {
	cfg := testConfig()

	h1, err := cfg.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	h2, err := cfg.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("two hashes of the same password must differ (fresh salt)")
	}
}

func TestHash_Policy(t *testing.T) {
	cfg := testConfig()

	if _, err := cfg.Hash("abc"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if _, err := cfg.Hash(strings.Repeat("x", 73)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	cfg := testConfig()

	for _, bad := range []string{"", "not-a-hash", "$2a$boom", "plaintext-password"} {
		ok, err := cfg.Verify(bad, "secret1")
		if ok {
			t.Fatalf("malformed hash %q must not match", bad)
		}
		if !errors.Is(err, ErrInvalidHash) {
			t.Fatalf("malformed hash %q: expected ErrInvalidHash, got %v", bad, err)
		}
	}
}

func TestFromEnv_DefaultsAndClamps(t *testing.T) {
	cfg := FromEnv()
	if cfg.Cost != 12 || cfg.Policy.MinLength != 6 || cfg.Policy.MaxLength != 72 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	t.Setenv("GATEHOUSE_PASSWORD_COST", "99")
	t.Setenv("GATEHOUSE_PASSWORD_MIN_LENGTH", "10")
	t.Setenv("GATEHOUSE_PASSWORD_MAX_LENGTH", "500")

	cfg = FromEnv()
	if cfg.Cost != bcrypt.MaxCost {
		t.Fatalf("cost should clamp to bcrypt.MaxCost, got %d", cfg.Cost)
	}
	if cfg.Policy.MaxLength != 72 {
		t.Fatalf("max length should clamp to 72, got %d", cfg.Policy.MaxLength)
	}
	if cfg.Policy.MinLength != 10 {
		t.Fatalf("min length override lost: %d", cfg.Policy.MinLength)
	}
}
