// Package client talks JSON-RPC to a Chapay chain. It routes raw fee token
// transactions between the default endpoint and the sponsorship relay and
// wraps the common read calls of go-ethereum's ethclient.
package client

import (
	"github/chapool/go-chapay/txtypes"
)

// Destination names the endpoint class an outgoing raw transaction is routed
// to.
type Destination uint8

const (
	// RouteDefault is the regular JSON-RPC endpoint.
	RouteDefault Destination = iota
	// RouteRelay is the sponsorship relay endpoint.
	RouteRelay
)

func (d Destination) String() string {
	if d == RouteRelay {
		return "relay"
	}
	return "default"
}

// Route inspects a raw transaction and decides which endpoint it belongs to.
// Only well formed fee token transactions whose sponsor slot is pending go to
// the relay; everything else, including bytes that do not decode as a fee
// token transaction, goes to the default endpoint. Route never fails and has
// no side effects.
func Route(raw []byte) Destination {
	var tx txtypes.FeeTokenTx
	if err := tx.UnmarshalBinary(raw); err != nil {
		return RouteDefault
	}
	if tx.FeePayerSig.Pending() {
		return RouteRelay
	}
	return RouteDefault
}
