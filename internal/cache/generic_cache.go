// Handles bounded, expiring storage of cached HTTP responses
package cache

import "time"

// GenericCache interface for caching operations
type GenericCache interface {
	// retrieves cached data if it exists and is not expired.
	// returns nil, nil when not found or expired
	Get(key string) ([]byte, error)
	// stores data under key, evicting the oldest entry when full
	Set(key string, value []byte) error
	// removes a single entry, reporting whether it was present
	Delete(key string) bool
	// removes every entry
	Purge()
	// number of stored entries, stale ones included
	Len() int
	// describes stored entries, oldest first
	Entries() []EntryInfo
}

// EntryInfo describes a stored entry without exposing its value
type EntryInfo struct {
	Key      string    `json:"key"`
	Size     int       `json:"size"`
	StoredAt time.Time `json:"stored_at"`
	Age      string    `json:"age"`
	Fresh    bool      `json:"fresh"`
}
