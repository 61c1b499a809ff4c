// Package password provides password hashing and verification for gatehouse.
//
// It wraps bcrypt with:
// - Configurable cost (via environment variables, with safe clamps)
// - Password length policy validation
// - Strict hash handling during Verify
//
// Security notes:
// - Every hash embeds a fresh random salt; two hashes of one password differ.
// - Hash strings are treated as untrusted input during Verify; malformed
//   hashes report ErrInvalidHash rather than a silent mismatch.
package password
