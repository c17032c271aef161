package relayd

import (
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// 521 is not part of net/http, it signals "origin down" to the load balancer.
const statusNotReady = 521

func (s *Server) handleReady(c echo.Context) error {
	if !s.Ready() {
		return c.String(statusNotReady, "Not ready.")
	}

	return c.String(http.StatusOK, "Ready.")
}

// handleHealthy additionally probes the database and the upstream node. It
// is guarded by the management secret since the checks are not free.
func (s *Server) handleHealthy(c echo.Context) error {
	if c.QueryParam("mgmt-secret") != s.Config.Management.Secret {
		return echo.NewHTTPError(http.StatusUnauthorized)
	}

	if !s.Ready() {
		return c.String(statusNotReady, "Not ready.")
	}

	ctx := c.Request().Context()

	var str strings.Builder
	str.WriteString("Ready.\n")

	if s.DB != nil {
		if err := s.DB.PingContext(ctx); err != nil {
			log.Error().Err(err).Msg("Database ping failed")
			return c.String(statusNotReady, "Not healthy.")
		}
		str.WriteString("Database: OK.\n")
	}

	var chainID hexutil.Big
	if err := s.Upstream.CallContext(ctx, &chainID, "eth_chainId"); err != nil {
		log.Error().Err(err).Msg("Upstream chain id check failed")
		return c.String(statusNotReady, "Not healthy.")
	}
	if got := chainID.ToInt().Uint64(); got != s.Config.Relay.ChainID {
		log.Error().
			Uint64("got", got).
			Uint64("want", s.Config.Relay.ChainID).
			Msg("Upstream chain id mismatch")
		return c.String(statusNotReady, "Not healthy.")
	}
	str.WriteString("Upstream: OK.\n")

	return c.String(http.StatusOK, str.String())
}
