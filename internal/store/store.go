// Package store provides the local persistent key/value store backing the
// offline queue, recent locations, and favorites. Values are JSON blobs; the
// store itself is best-effort with no transactional guarantees.
package store

// KV is a small typed key/value surface so the persistence mechanism is
// swappable between the embedded database and the in-memory test double.
type KV interface {
	// Get returns the stored value and whether the key exists. Read
	// failures report as a missing key.
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string)
}
