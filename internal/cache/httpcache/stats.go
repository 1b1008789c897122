package httpcache

import "go.uber.org/atomic"

// Stats counts cache decisions
type Stats struct {
	hits      atomic.Int64
	misses    atomic.Int64
	bypasses  atomic.Int64
	stores    atomic.Int64
	evictions atomic.Int64
	coalesced atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats
type StatsSnapshot struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Bypasses  int64 `json:"bypasses"`
	Stores    int64 `json:"stores"`
	Evictions int64 `json:"evictions"`
	Coalesced int64 `json:"coalesced"`
	Entries   int   `json:"entries"`
}

// Snapshot copies the current counters
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Bypasses:  s.bypasses.Load(),
		Stores:    s.stores.Load(),
		Evictions: s.evictions.Load(),
		Coalesced: s.coalesced.Load(),
	}
}
