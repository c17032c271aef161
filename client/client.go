package client

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github/chapool/go-chapay/txtypes"
)

const (
	methodSendRawTransaction     = "eth_sendRawTransaction"
	methodSendRawTransactionSync = "eth_sendRawTransactionSync"
)

// Config carries the endpoints of one chain. RelayURL is optional; without it
// pending sponsorship transactions fall back to the default endpoint.
type Config struct {
	URL      string
	RelayURL string
}

// Client keeps one connection to the default endpoint and, when configured,
// one to the sponsorship relay. Raw transaction submissions are routed
// between them based on the sponsor slot of the transaction.
type Client struct {
	cfg   Config
	rpc   *rpc.Client
	relay *rpc.Client // nil when no relay endpoint is configured
	eth   *ethclient.Client
}

// Dial connects to the configured endpoints.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("an RPC URL is required")
	}
	rc, err := rpc.DialContext(ctx, cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "dialing default endpoint")
	}
	c := &Client{cfg: cfg, rpc: rc, eth: ethclient.NewClient(rc)}
	if cfg.RelayURL != "" {
		relay, err := rpc.DialContext(ctx, cfg.RelayURL)
		if err != nil {
			rc.Close()
			return nil, errors.Wrap(err, "dialing relay endpoint")
		}
		c.relay = relay
	}
	return c, nil
}

// Close shuts down all connections.
func (c *Client) Close() {
	c.rpc.Close()
	if c.relay != nil {
		c.relay.Close()
	}
}

// SendRawTransaction submits a serialized transaction and returns its hash.
// Pending sponsorship transactions go to the relay endpoint. Errors from the
// endpoint come back unchanged.
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	var hash common.Hash
	if err := c.submit(ctx, &hash, methodSendRawTransaction, raw); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// SendRawTransactionSync submits a serialized transaction and waits for its
// receipt, using the EIP-7966 synchronous submission method. It routes
// exactly like SendRawTransaction. A zero timeout leaves the server default
// in place.
func (c *Client) SendRawTransactionSync(ctx context.Context, raw []byte, timeout time.Duration) (*types.Receipt, error) {
	var receipt types.Receipt
	var extra []interface{}
	if timeout > 0 {
		extra = append(extra, hexutil.Uint64(timeout.Milliseconds()))
	}
	if err := c.submit(ctx, &receipt, methodSendRawTransactionSync, raw, extra...); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// SendTransaction serializes and submits a signed transaction after checking
// it against the endpoint's chain id.
func (c *Client) SendTransaction(ctx context.Context, tx *txtypes.FeeTokenTx) (common.Hash, error) {
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	if tx.ChainID == nil || tx.ChainID.ToBig().Cmp(chainID) != 0 {
		return common.Hash{}, errors.Wrapf(txtypes.ErrValidation,
			"transaction chain id %v does not match endpoint chain id %v", tx.ChainID, chainID)
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "serializing transaction")
	}
	return c.SendRawTransaction(ctx, raw)
}

// submit routes raw to the proper endpoint and performs the call. Transport
// and RPC errors are returned untranslated so callers see exactly what the
// endpoint said.
func (c *Client) submit(ctx context.Context, result interface{}, method string, raw []byte, extra ...interface{}) error {
	conn := c.rpc
	if Route(raw) == RouteRelay {
		if c.relay != nil {
			conn = c.relay
		} else {
			log.Warn().
				Str("component", "client").
				Msg("Transaction is pending sponsorship but no relay endpoint is configured, using default endpoint")
		}
	}
	params := append([]interface{}{hexutil.Encode(raw)}, extra...)
	return conn.CallContext(ctx, result, method, params...)
}
