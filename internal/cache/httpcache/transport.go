package httpcache

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// HeaderCache tells clients whether a response came from the cache
const HeaderCache = "X-Cache"

// Transport is an http.RoundTripper answering cacheable requests from an
// HTTPCache and forwarding everything else to the next RoundTripper.
//
// Without coalescing, concurrent misses on one key all go downstream and the
// last successful response wins the slot.
type Transport struct {
	next     http.RoundTripper
	cache    *HTTPCache
	coalesce bool
	group    singleflight.Group

	// called once a coalescing caller has joined the call for its key
	joined func()
}

// NewTransport puts hc in front of next. A nil next means http.DefaultTransport.
func NewTransport(next http.RoundTripper, hc *HTTPCache) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{
		next:  next,
		cache: hc,
	}
}

// Wrap builds a Transport owning a fresh in-memory cache configured by opts.
// Every call yields an independent cache.
func Wrap(next http.RoundTripper, opts Options) (*Transport, error) {
	hc, err := NewMemory(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create response cache: %w", err)
	}

	t := NewTransport(next, hc)
	t.coalesce = opts.Coalesce
	return t, nil
}

// SetCoalesce toggles sharing of in-flight downstream calls between
// concurrent misses on the same key
func (t *Transport) SetCoalesce(enabled bool) {
	t.coalesce = enabled
}

// Cache returns the cache backing the transport
func (t *Transport) Cache() *HTTPCache {
	return t.cache
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(requ *http.Request) (*http.Response, error) {
	if ok, reason := t.cache.policy.Cacheable(requ); !ok {
		t.cache.stats.bypasses.Inc()
		logrus.Debugf("Bypassing cache for %s %s: %s", requ.Method, requ.URL, reason)
		return t.next.RoundTrip(requ)
	}

	key := t.cache.GenerateKey(requ)

	resp, err := t.cache.GetKey(key, requ)
	if err != nil {
		// A broken entry is only a miss
		logrus.Errorf("Failed to get cached data for %s: %v", key, err)
	}
	if resp != nil {
		t.cache.stats.hits.Inc()
		logrus.Debugf("Cache hit for %s %s", requ.Method, key)
		resp.Header.Set(HeaderCache, "HIT")
		return resp, nil
	}

	t.cache.stats.misses.Inc()
	logrus.Debugf("Cache miss for %s %s", requ.Method, key)

	if t.coalesce {
		return t.fetchShared(requ, key)
	}
	return t.fetch(requ, key)
}

// fetch forwards requ and stores a successful response under key
func (t *Transport) fetch(requ *http.Request, key string) (*http.Response, error) {
	resp, err := t.next.RoundTrip(requ)
	if err != nil {
		return nil, err
	}
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}

	if isSuccess(resp.StatusCode) {
		data, err := Serialize(resp)
		if err != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		t.store(key, data)
	}

	resp.Header.Set(HeaderCache, "MISS")
	return resp, nil
}

// fetchShared forwards requ at most once per key among concurrent callers.
// Each caller gets its own copy of the response. The call runs with the
// context of whichever caller started it.
func (t *Transport) fetchShared(requ *http.Request, key string) (*http.Response, error) {
	ch := t.group.DoChan(key, func() (any, error) {
		resp, err := t.next.RoundTrip(requ)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := Serialize(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		if isSuccess(resp.StatusCode) {
			t.store(key, data)
		}
		return data, nil
	})
	if t.joined != nil {
		t.joined()
	}

	res := <-ch
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		t.cache.stats.coalesced.Inc()
	}

	resp, err := Deserialize(res.Val.([]byte), requ)
	if err != nil {
		return nil, fmt.Errorf("failed to copy shared response: %w", err)
	}
	resp.Header.Set(HeaderCache, "MISS")
	return resp, nil
}

func (t *Transport) store(key string, data []byte) {
	if err := t.cache.setRaw(key, data); err != nil {
		logrus.Errorf("Failed to cache response for %s: %v", key, err)
	}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
