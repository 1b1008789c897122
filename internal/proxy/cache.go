package proxy

import (
	"net/http"

	"github.com/iTrooz/response-cache/internal/cache/httpcache"

	"github.com/elazarl/goproxy"
	"github.com/sirupsen/logrus"
)

// setupCacheHandler routes every upstream round trip through the response cache
func (s *Server) setupCacheHandler() {
	s.proxy.OnRequest().DoFunc(func(requ *http.Request, ctx *goproxy.ProxyCtx) (*http.Request, *http.Response) {
		ctx.RoundTripper = goproxy.RoundTripperFunc(s.roundTrip)
		return requ, nil
	})
}

func (s *Server) roundTrip(requ *http.Request, ctx *goproxy.ProxyCtx) (*http.Response, error) {
	resp, err := s.transport.RoundTrip(requ)
	if err != nil {
		logrus.Errorf("Failed to forward %s %s: %v", requ.Method, requ.URL, err)
		return nil, err
	}

	status := resp.Header.Get(httpcache.HeaderCache)
	if status == "" {
		status = "BYPASS"
	}
	logrus.Infof("%s %s -> %d (%s)", requ.Method, requ.URL, resp.StatusCode, status)
	return resp, nil
}
