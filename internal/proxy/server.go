package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/iTrooz/response-cache/internal/cache/httpcache"
	"github.com/iTrooz/response-cache/internal/config"

	"github.com/elazarl/goproxy"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

// Server represents the caching proxy server
type Server struct {
	config    *config.Config
	proxy     *goproxy.ProxyHttpServer
	transport *httpcache.Transport
}

// New creates a new proxy server
func New(cfg *config.Config) (*Server, error) {
	opts, err := cfg.CacheOptions()
	if err != nil {
		return nil, err
	}

	proxy := goproxy.NewProxyHttpServer()
	proxy.Logger = logrus.StandardLogger()
	proxy.Verbose = logrus.IsLevelEnabled(logrus.DebugLevel)

	transport, err := httpcache.Wrap(proxy.Tr, opts)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:    cfg,
		proxy:     proxy,
		transport: transport,
	}

	s.setupCacheHandler()
	if cfg.Server.HTTPS.Enabled {
		if err := s.setupHTTPSProxyHandler(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// GetProxy returns the proxy HTTP handler
func (s *Server) GetProxy() *goproxy.ProxyHttpServer {
	return s.proxy
}

// Cache returns the response cache used for upstream requests
func (s *Server) Cache() *httpcache.HTTPCache {
	return s.transport.Cache()
}

// Start runs the proxy, and the admin API when configured, until ctx is done
func (s *Server) Start(ctx context.Context) error {
	logrus.Infof("Starting caching proxy on port %d", s.config.Server.Port)
	logrus.Infof("Cache TTL: %s, max entries: %d", s.config.Cache.TTL, s.config.Cache.MaxSize)
	logrus.Infof("Cacheable methods: %v", s.config.Cache.Methods)
	if len(s.config.Cache.IncludeURLs) > 0 {
		logrus.Infof("Include URLs: %v", s.config.Cache.IncludeURLs)
	}
	if len(s.config.Cache.ExcludeURLs) > 0 {
		logrus.Infof("Exclude URLs: %v", s.config.Cache.ExcludeURLs)
	}

	servers := []*http.Server{{
		Addr:    fmt.Sprintf(":%d", s.config.Server.Port),
		Handler: s.proxy,
	}}
	if s.config.Server.AdminPort != 0 {
		logrus.Infof("Starting admin API on port %d", s.config.Server.AdminPort)
		servers = append(servers, &http.Server{
			Addr:    fmt.Sprintf(":%d", s.config.Server.AdminPort),
			Handler: s.AdminHandler(),
		})
	}

	if addr := s.config.Server.HTTPS.TransparentAddr; addr != "" && s.config.Server.HTTPS.Enabled {
		go func() {
			if err := s.StartTransparentHTTPS(ctx, addr); err != nil {
				logrus.Errorf("Transparent HTTPS listener failed: %v", err)
			}
		}()
	}

	errs := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- fmt.Errorf("server on %s failed: %w", srv.Addr, err)
			}
		}(srv)
	}

	var runErr error
	select {
	case <-ctx.Done():
		logrus.Infof("Shutting down")
	case runErr = <-errs:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.Warnf("Failed to shut down server on %s: %v", srv.Addr, err)
		}
	}

	return runErr
}
