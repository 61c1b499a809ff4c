package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the identity envelope carried by a verified token.
type Claims struct {
	UserID    string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type jwtClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// Codec signs and verifies identity tokens with a fixed algorithm (HS256)
// and the immutable process-wide secret handed to it at construction.
type Codec struct {
	issuer    string
	ttl       time.Duration
	clockSkew time.Duration
	secret    []byte
}

// NewCodec builds a Codec from validated configuration.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.SecretKey) < minSecretBytes {
		return nil, ErrConfig
	}
	if cfg.TTL <= 0 {
		return nil, ErrConfig
	}
	return &Codec{
		issuer:    cfg.Issuer,
		ttl:       cfg.TTL,
		clockSkew: cfg.ClockSkew,
		secret:    cfg.SecretKey,
	}, nil
}

// Issue signs a token for the given subject and returns it with its expiry.
func (c *Codec) Issue(userID, email string, now time.Time) (string, time.Time, error) {
	exp := now.Add(c.ttl)

	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email: email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks signature, issuer and expiry, and returns the claims.
//
// All failures report ErrInvalidToken; expiry additionally matches
// ErrTokenExpired. Callers mapping to HTTP must treat both as a single
// unauthorized outcome.
func (c *Codec) Verify(tokenStr string, now time.Time) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithLeeway(c.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)

	parsed, err := parser.ParseWithClaims(tokenStr, &jwtClaims{}, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwtClaims)
	if !ok || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}

	out := Claims{
		UserID: claims.Subject,
		Email:  claims.Email,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
