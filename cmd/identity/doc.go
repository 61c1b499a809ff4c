// Package identity owns the durable account record and its persistence
// boundary.
//
// The store contract is narrow: create one account, look one up
// by exact normalized email, look one up by id. Lookups take canonical
// strings only; shape validation of untrusted input happens upstream in
// cmd/security/guard.
//
// FindUserRaw exists solely for the opt-in vulnerable login demonstration and
// forwards an unvalidated filter to the query layer. Nothing on a production
// path may call it.
package identity
