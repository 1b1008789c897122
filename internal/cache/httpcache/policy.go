package httpcache

import (
	"net/http"
	"net/url"
	"strings"
)

// Policy decides whether a request takes part in caching and under which key
type Policy struct {
	Methods       []string
	IncludeURLs   []string
	ExcludeURLs   []string
	IncludeParams bool
}

// NewPolicy extracts the request policy from options, defaults applied
func NewPolicy(opts Options) Policy {
	opts = opts.withDefaults()
	return Policy{
		Methods:       opts.Methods,
		IncludeURLs:   opts.IncludeURLs,
		ExcludeURLs:   opts.ExcludeURLs,
		IncludeParams: *opts.IncludeParams,
	}
}

// Cacheable reports whether requ may be answered from, and stored in, the cache.
// The reason is meant for logs.
func (p Policy) Cacheable(requ *http.Request) (bool, string) {
	if !p.methodAllowed(requ.Method) {
		return false, "method not cacheable"
	}

	target := baseURL(requ.URL)

	if matchesAny(target, p.ExcludeURLs) {
		return false, "URL excluded"
	}

	if len(p.IncludeURLs) > 0 && !matchesAny(target, p.IncludeURLs) {
		return false, "URL not included"
	}

	return true, ""
}

func (p Policy) methodAllowed(method string) bool {
	for _, m := range p.Methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

// Key derives the cache key of requ: the URL without its query, followed by
// "?" and the raw query string when parameters are part of the key.
// Parameter order is kept as sent, so reordered parameters yield another key.
func (p Policy) Key(requ *http.Request) string {
	target := baseURL(requ.URL)
	if !p.IncludeParams {
		return target
	}
	return target + "?" + requ.URL.RawQuery
}

func matchesAny(target string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(target, pattern) {
			return true
		}
	}
	return false
}

// baseURL returns u without query or fragment
func baseURL(u *url.URL) string {
	stripped := *u
	stripped.RawQuery = ""
	stripped.ForceQuery = false
	stripped.Fragment = ""
	stripped.RawFragment = ""
	return stripped.String()
}
