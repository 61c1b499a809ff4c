// Package token issues and verifies the signed, time-bounded identity tokens
// that bind a login to subsequent requests.
//
// Tokens are compact JWTs signed with HMAC-SHA256 under a single process-wide
// secret. The secret is loaded once at startup into an immutable Config; a
// missing or short secret fails startup rather than surfacing per-request.
//
// Verification failures collapse into ErrInvalidToken regardless of cause so
// that callers cannot build an oracle out of the distinction; expiry is
// additionally matchable as ErrTokenExpired for tests and logs.
package token
