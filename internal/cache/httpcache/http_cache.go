package httpcache

import (
	"fmt"
	"net/http"

	"github.com/iTrooz/response-cache/internal/cache"
)

// HTTPCache stores HTTP responses in a GenericCache under keys derived by a Policy
type HTTPCache struct {
	cache  cache.GenericCache
	policy Policy
	stats  *Stats
}

// New wraps store with the given request policy
func New(store cache.GenericCache, policy Policy) *HTTPCache {
	return &HTTPCache{
		cache:  store,
		policy: policy,
		stats:  &Stats{},
	}
}

// NewMemory builds an HTTPCache over its own in-memory store sized and aged per opts
func NewMemory(opts Options) (*HTTPCache, error) {
	opts = opts.withDefaults()

	hc := New(nil, NewPolicy(opts))
	store, err := cache.NewMemory(opts.MaxSize, opts.TTL, cache.WithEvictHook(hc.RecordEviction))
	if err != nil {
		return nil, err
	}
	hc.cache = store
	return hc, nil
}

// RecordEviction counts an entry evicted by the store to make room.
// It fits cache.WithEvictHook.
func (d *HTTPCache) RecordEviction(key string) {
	d.stats.evictions.Inc()
}

// Policy returns the request policy
func (d *HTTPCache) Policy() Policy {
	return d.policy
}

// Store returns the underlying store
func (d *HTTPCache) Store() cache.GenericCache {
	return d.cache
}

// Stats returns counters including the current entry count
func (d *HTTPCache) Stats() StatsSnapshot {
	s := d.stats.Snapshot()
	s.Entries = d.cache.Len()
	return s
}

// GenerateKey derives the cache key of request
func (d *HTTPCache) GenerateKey(request *http.Request) string {
	return d.policy.Key(request)
}

func (d *HTTPCache) SetReq(request *http.Request, resp *http.Response) error {
	return d.SetKey(d.GenerateKey(request), resp)
}

// SetKey snapshots resp and stores it under requestKey.
// resp stays readable by the caller.
func (d *HTTPCache) SetKey(requestKey string, resp *http.Response) error {
	data, err := Serialize(resp)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	return d.setRaw(requestKey, data)
}

func (d *HTTPCache) setRaw(requestKey string, data []byte) error {
	if err := d.cache.Set(requestKey, data); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	d.stats.stores.Inc()
	return nil
}

func (d *HTTPCache) GetReq(req *http.Request) (*http.Response, error) {
	return d.GetKey(d.GenerateKey(req), req)
}

// GetKey returns a fresh clone of the response stored under requestKey,
// or nil, nil on a miss
func (d *HTTPCache) GetKey(requestKey string, req *http.Request) (*http.Response, error) {
	data, err := d.cache.Get(requestKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}
	if data == nil {
		return nil, nil // Cache miss
	}

	resp, err := Deserialize(data, req)
	if err != nil {
		// Drop the unreadable entry so the next request can replace it
		d.cache.Delete(requestKey)
		return nil, fmt.Errorf("failed to deserialize response: %w", err)
	}
	return resp, nil
}

// Purge removes every stored response
func (d *HTTPCache) Purge() {
	d.cache.Purge()
}

// Delete removes the response stored under requestKey
func (d *HTTPCache) Delete(requestKey string) bool {
	return d.cache.Delete(requestKey)
}
