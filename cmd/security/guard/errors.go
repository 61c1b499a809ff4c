package guard

import (
	"errors"
	"fmt"
)

// ErrRejected is the umbrella kind for every guard failure; callers that only
// need a single validation branch can match it with errors.Is.
var ErrRejected = errors.New("guard: rejected")

// Specific rejection reasons. All of them match ErrRejected.
var (
	ErrNotAString       = fmt.Errorf("%w: value is not a plain string", ErrRejected)
	ErrEmptyField       = fmt.Errorf("%w: field is missing or empty", ErrRejected)
	ErrBadEmail         = fmt.Errorf("%w: malformed email address", ErrRejected)
	ErrPasswordTooShort = fmt.Errorf("%w: password below minimum length", ErrRejected)
)
