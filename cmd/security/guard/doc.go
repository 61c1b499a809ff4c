// Package guard validates untrusted request fields before they may reach a
// persistence query.
//
// The persistence layer (MongoDB) interprets document-shaped values as query
// operators: a field submitted as {"$ne": null} turns an equality lookup into
// "match any record where this field exists". guard works on the raw JSON of
// each field so that runtime shape is checked, not coerced: anything that is
// not a plain JSON string is rejected outright.
//
// Only guard output may be passed to identity store lookups or creates.
package guard
