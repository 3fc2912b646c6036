// Package fetchtest provides an HTTPS test server that answers for any host
// name, so crawler code can be exercised against realistic absolute URLs
// such as https://example.com/favicon.ico without touching the network.
package fetchtest

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// ErrUnreachable is the dial error reported for hosts marked unreachable.
var ErrUnreachable = errors.New("no such host")

// HostMux dispatches requests by Host header. Unknown hosts receive 404.
type HostMux map[string]http.Handler

// ServeHTTP implements http.Handler.
func (m HostMux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if handler, ok := m[strings.ToLower(host)]; ok {
		handler.ServeHTTP(w, r)
		return
	}
	http.NotFound(w, r)
}

// Server is a TLS test server reachable under every host name.
type Server struct {
	*httptest.Server

	mu          sync.RWMutex
	unreachable map[string]bool
}

// NewServer starts a Server serving handler and registers its shutdown with t.
func NewServer(t testing.TB, handler http.Handler) *Server {
	t.Helper()

	s := &Server{
		Server:      httptest.NewTLSServer(handler),
		unreachable: make(map[string]bool),
	}
	t.Cleanup(s.Close)
	return s
}

// Unreachable makes connections to the given hosts fail at dial time, the
// way a DNS failure would.
func (s *Server) Unreachable(hosts ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range hosts {
		s.unreachable[strings.ToLower(h)] = true
	}
}

func (s *Server) isUnreachable(host string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unreachable[strings.ToLower(host)]
}

// Transport returns a RoundTripper that connects every https request to s.
func (s *Server) Transport() http.RoundTripper {
	addr := s.Listener.Addr().String()
	return &http.Transport{
		DialContext: func(ctx context.Context, network, target string) (net.Conn, error) {
			host, _, err := net.SplitHostPort(target)
			if err != nil {
				host = target
			}
			if s.isUnreachable(host) {
				return nil, &net.OpError{Op: "dial", Net: network, Err: ErrUnreachable}
			}
			var d net.Dialer
			return d.DialContext(ctx, "tcp", addr)
		},
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // Test server certificate
	}
}
