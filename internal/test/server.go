package test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github/chapool/go-chapay/internal/config"
	"github/chapool/go-chapay/internal/relayd"
)

// DefaultTestConfig returns a relay configuration wired for tests: no
// database, no NATS, the deterministic devnet sponsor key, and the given
// upstream endpoint.
func DefaultTestConfig(upstreamURL string) config.Server {
	cfg := config.DefaultServiceConfigFromEnv()
	cfg.Database.Enabled = false
	cfg.NATS.Enabled = false
	cfg.Echo.ListenAddress = ":0"
	cfg.Echo.EnableLoggerMiddleware = false
	cfg.Relay.UpstreamURL = upstreamURL
	cfg.Relay.ChainID = 1337
	cfg.Relay.UseDevKey = true
	cfg.Relay.KeystorePath = ""
	cfg.Relay.EnableSponsorship = true
	return cfg
}

// WithRelayServer runs fn against a fully initialized relay server backed by
// the given upstream endpoint, serving its HTTP surface through httptest.
func WithRelayServer(t *testing.T, upstreamURL string, fn func(s *relayd.Server, baseURL string)) {
	t.Helper()
	WithRelayServerConfig(t, DefaultTestConfig(upstreamURL), fn)
}

// WithRelayServerConfig is WithRelayServer with a caller supplied
// configuration.
func WithRelayServerConfig(t *testing.T, cfg config.Server, fn func(s *relayd.Server, baseURL string)) {
	t.Helper()

	s := relayd.NewServer(cfg)
	if err := s.Init(t.Context()); err != nil {
		t.Fatalf("Failed to initialize relay server: %v", err)
	}
	relayd.InitRouter(s)

	srv := httptest.NewServer(s.Echo)
	t.Cleanup(srv.Close)
	t.Cleanup(func() {
		for _, err := range s.Shutdown(context.Background()) {
			t.Errorf("Shutdown error: %v", err)
		}
	})

	fn(s, srv.URL)
}
