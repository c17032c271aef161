package relayd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github/chapool/go-chapay/txtypes"
)

// JSON-RPC error codes returned by the relay itself. Upstream errors keep
// their original codes.
const (
	codeSponsorshipRejected = -32004
	codeInternalError       = -32603
)

// rpcRequest is the subset of a JSON-RPC request the relay inspects.
type rpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type rpcErrorBody struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcErrorBody   `json:"error,omitempty"`
}

// handleRPC is the JSON-RPC entry point. Single eth_sendRawTransaction and
// eth_sendRawTransactionSync requests carrying a pending sponsorship envelope
// are countersigned before forwarding; everything else passes through to the
// upstream node untouched.
func (s *Server) handleRPC(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "reading request body")
	}

	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "empty request body")
	}

	// Sponsorship interception applies to single requests only, batches
	// pass through verbatim.
	if trimmed[0] == '[' {
		return s.proxyRaw(c, body)
	}

	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON-RPC request")
	}

	if isSendMethod(req.Method) && len(req.Params) > 0 {
		return s.handleSend(c, body, &req)
	}

	return s.proxyRaw(c, body)
}

func isSendMethod(method string) bool {
	return method == "eth_sendRawTransaction" || method == "eth_sendRawTransactionSync"
}

// handleSend countersigns pending sponsorship envelopes. Anything that does
// not decode as a pending fee token transaction falls back to the verbatim
// proxy so the relay never gets in the way of regular traffic.
func (s *Server) handleSend(c echo.Context, body []byte, req *rpcRequest) error {
	var rawHex string
	if err := json.Unmarshal(req.Params[0], &rawHex); err != nil {
		return s.proxyRaw(c, body)
	}
	raw, err := hexutil.Decode(rawHex)
	if err != nil {
		return s.proxyRaw(c, body)
	}

	tx := new(txtypes.FeeTokenTx)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return s.proxyRaw(c, body)
	}
	if !tx.FeePayerSig.Pending() {
		return s.proxyRaw(c, body)
	}

	// Pending envelopes are never forwarded unsigned, the node would reject
	// them anyway.
	if s.Countersigner == nil {
		return s.rpcError(c, req, codeSponsorshipRejected, "sponsorship is disabled")
	}

	countersigned, signed, err := s.Countersigner.Countersign(raw)
	if err != nil {
		s.Metrics.Rejected.Inc()
		log.Warn().Err(err).Msg("Refusing to sponsor transaction")
		return s.rpcError(c, req, codeSponsorshipRejected, err.Error())
	}

	sender, err := txtypes.Sender(signed)
	if err != nil {
		return s.rpcError(c, req, codeInternalError, "recovering sender")
	}

	ctx := c.Request().Context()

	if limit := s.Config.Relay.DailySponsorCap; limit > 0 && s.Ledger.Enabled() {
		n, err := s.Ledger.CountForSenderSince(ctx, sender, s.Clock.Now().Add(-24*time.Hour))
		if err != nil {
			log.Error().Err(err).Msg("Sponsorship ledger unavailable")
			return s.rpcError(c, req, codeInternalError, "sponsorship temporarily unavailable")
		}
		if n >= limit {
			s.Metrics.Rejected.Inc()
			log.Warn().
				Str("sender", sender.Hex()).
				Int("count", n).
				Msg("Daily sponsorship cap reached")
			return s.rpcError(c, req, codeSponsorshipRejected, "daily sponsorship limit reached")
		}
	}

	params := []interface{}{hexutil.Encode(countersigned)}
	for _, p := range req.Params[1:] {
		params = append(params, p)
	}

	var result json.RawMessage
	if err := s.Upstream.CallContext(ctx, &result, req.Method, params...); err != nil {
		return s.forwardRPCError(c, req, err)
	}

	s.recordSponsorship(ctx, signed, sender)
	s.Metrics.Sponsored.Inc()

	return c.JSON(http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result})
}

// recordSponsorship updates the ledger and emits the NATS event. Both are
// best effort, the transaction is already on its way to the chain.
func (s *Server) recordSponsorship(ctx context.Context, tx *txtypes.FeeTokenTx, sender common.Address) {
	if s.Ledger.Enabled() {
		if err := s.Ledger.RecordSponsorship(ctx, tx, sender); err != nil {
			log.Error().Err(err).Msg("Failed to record sponsorship")
		}
	}

	hash, err := tx.Hash()
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash countersigned transaction")
		return
	}

	ev := SponsorshipEvent{
		TxHash:   hash.Hex(),
		Sender:   sender.Hex(),
		FeePayer: s.Countersigner.Address().Hex(),
		ChainID:  s.Config.Relay.ChainID,
		Time:     s.Clock.Now(),
	}
	if tx.FeeToken != nil {
		ev.FeeToken = tx.FeeToken.Hex()
	}
	s.Publisher.PublishSponsorship(ev)

	log.Info().
		Str("tx_hash", ev.TxHash).
		Str("sender", ev.Sender).
		Str("fee_payer", ev.FeePayer).
		Str("fee_token", ev.FeeToken).
		Msg("Sponsored transaction")
}

// proxyRaw forwards the request body to the upstream node byte for byte and
// streams the answer back.
func (s *Server) proxyRaw(c echo.Context, body []byte) error {
	req, err := http.NewRequestWithContext(c.Request().Context(),
		http.MethodPost, s.Config.Relay.UpstreamURL, bytes.NewReader(body))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "building upstream request")
	}
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	resp, err := s.HTTP.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("Upstream request failed")
		return echo.NewHTTPError(http.StatusBadGateway, "upstream unavailable")
	}
	defer resp.Body.Close()

	s.Metrics.Proxied.Inc()

	return c.Stream(resp.StatusCode, echo.MIMEApplicationJSON, resp.Body)
}

// forwardRPCError turns an upstream error into a JSON-RPC error response,
// keeping the original code where the upstream provided one.
func (s *Server) forwardRPCError(c echo.Context, req *rpcRequest, err error) error {
	body := &rpcErrorBody{Code: codeInternalError, Message: err.Error()}

	var rpcErr gethrpc.Error
	if errors.As(err, &rpcErr) {
		body.Code = rpcErr.ErrorCode()
	}
	var dataErr gethrpc.DataError
	if errors.As(err, &dataErr) {
		body.Data = dataErr.ErrorData()
	}

	return c.JSON(http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: body})
}

func (s *Server) rpcError(c echo.Context, req *rpcRequest, code int, message string) error {
	return c.JSON(http.StatusOK, rpcResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Error:   &rpcErrorBody{Code: code, Message: message},
	})
}
