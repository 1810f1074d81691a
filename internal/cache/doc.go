// Package cache provides an in-process, string-keyed store whose entries
// carry an absolute expiry.
//
// New(ttl) builds a Store. A ttl of 0 keeps entries forever; a positive ttl
// expires an entry ttl after its most recent Set. Expiry is checked lazily on
// every Get, so a Store is correct without ever calling Evict or Run. Run is
// an optional background sweep that frees memory held by expired entries.
//
// Update performs a get-modify-set sequence under the store's write lock.
// Callers that derive the new value from the current one must use Update
// rather than Get followed by Set.
package cache
