package tests

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/iTrooz/response-cache/internal/config"
	"github.com/iTrooz/response-cache/internal/proxy"

	"go.uber.org/atomic"
)

// fixture_upstream creates a test upstream server counting the requests it answers.
// Paths under /fail answer 500.
func fixture_upstream(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	calls := atomic.NewInt64(0)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, requ *http.Request) {
		n := calls.Inc()
		w.Header().Set("Content-Type", "application/json")
		if len(requ.URL.Path) >= 5 && requ.URL.Path[:5] == "/fail" {
			w.WriteHeader(http.StatusInternalServerError)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_, _ = w.Write([]byte(`{"message": "Hello from upstream", "path": "` + requ.URL.Path + `", "call": ` + strconv.FormatInt(n, 10) + `}`))
	}))
	t.Cleanup(upstream.Close)
	return upstream, calls
}

// fixture_config creates a test config, letting mutate adjust the defaults
func fixture_config(mutate func(*config.Config)) *config.Config {
	cfg := config.Default()
	cfg.Cache.TTL = "1h"
	if mutate != nil {
		mutate(cfg)
	}
	return cfg
}

// fixture_proxy creates a proxy server with the given config and returns the server and an HTTP client using it
func fixture_proxy(t *testing.T, cfg *config.Config) (*proxy.Server, *http.Client) {
	t.Helper()
	proxyServer, err := proxy.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create proxy server: %v", err)
	}

	proxyTestServer := httptest.NewServer(proxyServer.GetProxy())
	t.Cleanup(proxyTestServer.Close)

	proxyURL, _ := url.Parse(proxyTestServer.URL)
	client := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyURL(proxyURL),
		},
		Timeout: 10 * time.Second,
	}

	return proxyServer, client
}
