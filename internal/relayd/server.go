// Package relayd implements the sponsorship relay daemon: a JSON-RPC
// pass-through in front of a Chapay node that countersigns pending fee token
// envelopes before they reach the chain.
package relayd

import (
	"context"
	"crypto/ecdsa"
	"database/sql"
	"net/http"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github/chapool/go-chapay/devkeys"
	"github/chapool/go-chapay/feepayer"
	"github/chapool/go-chapay/internal/config"
	"github/chapool/go-chapay/internal/util"
	"github/chapool/go-chapay/keystore"

	// Postgres driver for the sponsorship ledger.
	_ "github.com/lib/pq"
)

// Server keeps all relay daemon dependencies. NewServer only stores the
// configuration; Init assembles the components and InitRouter mounts the
// HTTP surface.
type Server struct {
	Echo          *echo.Echo
	Router        *Router
	Config        config.Server
	DB            *sql.DB
	Clock         time2.Clock
	HTTP          *http.Client
	Upstream      *rpc.Client
	Countersigner *feepayer.Countersigner
	Ledger        *Ledger
	Publisher     Publisher
	Metrics       *Metrics
}

// NewServer returns an uninitialized server for cfg.
func NewServer(cfg config.Server) *Server {
	return &Server{
		Config: cfg,
		Clock:  time2.WallClock,
		HTTP:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Ready reports whether all required components are initialized. The
// database is only required when the ledger is enabled, the countersigner
// only when sponsorship is enabled.
func (s *Server) Ready() bool {
	required := struct {
		Echo      *echo.Echo
		Router    *Router
		Clock     time2.Clock
		HTTP      *http.Client
		Upstream  *rpc.Client
		Ledger    *Ledger
		Publisher Publisher
		Metrics   *Metrics
	}{s.Echo, s.Router, s.Clock, s.HTTP, s.Upstream, s.Ledger, s.Publisher, s.Metrics}

	if err := util.IsStructInitialized(&required); err != nil {
		log.Debug().Err(err).Msg("Server is not fully initialized")
		return false
	}

	if s.Config.Database.Enabled && s.DB == nil {
		return false
	}
	if s.Config.Relay.EnableSponsorship && s.Countersigner == nil {
		return false
	}

	return true
}

// Init assembles all server components except the HTTP router.
func (s *Server) Init(ctx context.Context) error {
	if err := s.initDatabase(ctx); err != nil {
		return err
	}
	if err := s.initCountersigner(); err != nil {
		return err
	}
	if err := s.initUpstream(ctx); err != nil {
		return err
	}
	if err := s.initPublisher(); err != nil {
		return err
	}

	s.Metrics = NewMetrics(s.DB)
	s.Ledger = NewLedger(s.DB, s.Clock)

	return nil
}

func (s *Server) initDatabase(ctx context.Context) error {
	if !s.Config.Database.Enabled {
		log.Info().Msg("Sponsorship ledger is disabled, skipping database connection")
		return nil
	}

	db, err := sql.Open("postgres", s.Config.Database.ConnectionString())
	if err != nil {
		return errors.Wrap(err, "opening database")
	}

	db.SetMaxOpenConns(s.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(s.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(s.Config.Database.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		return errors.Wrap(err, "pinging database")
	}

	s.DB = db
	return nil
}

func (s *Server) initCountersigner() error {
	if !s.Config.Relay.EnableSponsorship {
		log.Warn().Msg("Sponsorship is disabled, relay acts as a plain proxy")
		return nil
	}

	var key *ecdsa.PrivateKey
	var err error
	switch {
	case s.Config.Relay.KeystorePath != "":
		key, err = keystore.LoadKey(s.Config.Relay.KeystorePath, s.Config.Relay.KeystorePassphrase)
		if err != nil {
			return errors.Wrap(err, "loading sponsor keystore")
		}
	case s.Config.Relay.UseDevKey:
		key, _, err = devkeys.FeePayer()
		if err != nil {
			return errors.Wrap(err, "deriving dev sponsor key")
		}
		log.Warn().Msg("Using the well known devnet sponsor key")
	default:
		return errors.New("no sponsor key configured: set RELAY_KEYSTORE_PATH or RELAY_USE_DEV_KEY")
	}

	policy, err := s.sponsorPolicy()
	if err != nil {
		return err
	}

	s.Countersigner = feepayer.NewCountersigner(key, policy)

	log.Info().
		Str("fee_payer", s.Countersigner.Address().Hex()).
		Uint64("chain_id", s.Config.Relay.ChainID).
		Int("allowed_fee_tokens", len(policy.AllowedFeeTokens)).
		Msg("Sponsor key loaded")

	return nil
}

func (s *Server) sponsorPolicy() (feepayer.Policy, error) {
	cfg := s.Config.Relay
	policy := feepayer.Policy{
		RequireFeeToken: cfg.RequireFeeToken,
		MaxGas:          cfg.MaxGas,
		ChainID:         cfg.ChainID,
	}

	for _, raw := range cfg.AllowedFeeTokens {
		if !common.IsHexAddress(raw) {
			return policy, errors.Errorf("invalid fee token address %q", raw)
		}
		policy.AllowedFeeTokens = append(policy.AllowedFeeTokens, common.HexToAddress(raw))
	}

	if cfg.MaxFeePerGas != "" {
		limit, err := uint256.FromDecimal(cfg.MaxFeePerGas)
		if err != nil {
			return policy, errors.Wrap(err, "parsing RELAY_MAX_FEE_PER_GAS")
		}
		policy.MaxFeePerGas = limit
	}

	return policy, nil
}

func (s *Server) initUpstream(ctx context.Context) error {
	client, err := rpc.DialContext(ctx, s.Config.Relay.UpstreamURL)
	if err != nil {
		return errors.Wrapf(err, "dialing upstream %s", s.Config.Relay.UpstreamURL)
	}
	s.Upstream = client
	return nil
}

func (s *Server) initPublisher() error {
	if !s.Config.NATS.Enabled {
		s.Publisher = NewNopPublisher()
		return nil
	}

	pub, err := NewNATSPublisher(s.Config.NATS)
	if err != nil {
		return err
	}
	s.Publisher = pub
	return nil
}

// Start serves the HTTP surface until Shutdown.
func (s *Server) Start() error {
	if !s.Ready() {
		return errors.New("server is not ready")
	}

	if err := s.Echo.Start(s.Config.Echo.ListenAddress); err != nil {
		return errors.Wrap(err, "failed to start echo server")
	}

	return nil
}

// Shutdown releases all components, tolerating the errors a clean double
// close produces.
func (s *Server) Shutdown(ctx context.Context) []error {
	log.Warn().Msg("Shutting down server")

	var errs []error

	if s.Publisher != nil {
		s.Publisher.Close()
	}

	if s.Upstream != nil {
		s.Upstream.Close()
	}

	if s.DB != nil {
		log.Debug().Msg("Closing database connection")

		if err := s.DB.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			log.Error().Err(err).Msg("Failed to close database connection")
			errs = append(errs, err)
		}
	}

	if s.Echo != nil {
		log.Debug().Msg("Shutting down echo server")

		if err := s.Echo.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Failed to shutdown echo server")
			errs = append(errs, err)
		}
	}

	return errs
}
