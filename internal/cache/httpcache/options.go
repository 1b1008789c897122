package httpcache

import (
	"net/http"
	"time"
)

const (
	DefaultTTL     = 300000 * time.Millisecond
	DefaultMaxSize = 50
)

// Options configures which requests are cached and for how long
type Options struct {
	// How long a stored response is served before going downstream again
	TTL time.Duration
	// Methods whose responses may be cached, compared case-insensitively
	Methods []string
	// When non-empty, only URLs containing one of these are cached
	IncludeURLs []string
	// URLs containing one of these are never cached
	ExcludeURLs []string
	// Maximum number of stored responses
	MaxSize int
	// Whether the raw query string is part of the cache key, true when nil
	IncludeParams *bool
	// Let concurrent misses on the same key share one downstream call
	Coalesce bool
}

// DefaultOptions returns options caching GET responses for five minutes,
// keeping up to 50 of them
func DefaultOptions() Options {
	return Options{
		TTL:           DefaultTTL,
		Methods:       []string{http.MethodGet},
		MaxSize:       DefaultMaxSize,
		IncludeParams: Bool(true),
	}
}

// Bool returns a pointer to v, for optional fields such as IncludeParams
func Bool(v bool) *bool {
	return &v
}

// withDefaults fills every unset field. Coalesce stays off unless asked for.
func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.MaxSize <= 0 {
		o.MaxSize = DefaultMaxSize
	}
	if len(o.Methods) == 0 {
		o.Methods = []string{http.MethodGet}
	}
	if o.IncludeParams == nil {
		o.IncludeParams = Bool(true)
	}
	return o
}
