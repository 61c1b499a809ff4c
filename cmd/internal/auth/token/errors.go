package token

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig reports invalid or missing token configuration. Fatal at startup.
	ErrConfig = errors.New("token: invalid config")

	// ErrInvalidToken covers every verification failure: bad signature,
	// malformed token, wrong issuer, expired.
	ErrInvalidToken = errors.New("token: invalid token")

	// ErrTokenExpired matches ErrInvalidToken; it only adds precision for
	// callers that explicitly want to observe expiry.
	ErrTokenExpired = fmt.Errorf("%w: expired", ErrInvalidToken)
)
