// Package feepayer implements the sponsor side of fee token transactions:
// policy checks and countersigning of pending envelopes.
package feepayer

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github/chapool/go-chapay/txtypes"
)

// ErrNotSponsorable marks transactions the policy refuses to countersign.
var ErrNotSponsorable = errors.New("transaction is not sponsorable")

// Policy restricts what the fee payer is willing to countersign. The zero
// value accepts everything.
type Policy struct {
	// AllowedFeeTokens whitelists fee tokens. Empty allows any.
	AllowedFeeTokens []common.Address
	// RequireFeeToken rejects transactions that pay fees natively.
	RequireFeeToken bool
	// MaxGas caps the gas limit. Zero means no cap.
	MaxGas uint64
	// MaxFeePerGas caps maxFeePerGas. Nil means no cap.
	MaxFeePerGas *uint256.Int
	// ChainID pins sponsorship to one chain. Zero accepts any.
	ChainID uint64
}

// Check returns ErrNotSponsorable, wrapped with the reason, when tx falls
// outside the policy.
func (p Policy) Check(tx *txtypes.FeeTokenTx) error {
	if p.ChainID != 0 {
		if tx.ChainID == nil || !tx.ChainID.IsUint64() || tx.ChainID.Uint64() != p.ChainID {
			return errors.Wrap(ErrNotSponsorable, "transaction is for a different chain")
		}
	}
	if (p.RequireFeeToken || len(p.AllowedFeeTokens) > 0) && tx.FeeToken == nil {
		return errors.Wrap(ErrNotSponsorable, "fee token required")
	}
	if len(p.AllowedFeeTokens) > 0 && !containsAddress(p.AllowedFeeTokens, *tx.FeeToken) {
		return errors.Wrapf(ErrNotSponsorable, "fee token %s not allowed", tx.FeeToken.Hex())
	}
	if p.MaxGas != 0 && tx.Gas > p.MaxGas {
		return errors.Wrapf(ErrNotSponsorable, "gas %d above limit %d", tx.Gas, p.MaxGas)
	}
	if p.MaxFeePerGas != nil && tx.GasFeeCap != nil && tx.GasFeeCap.Gt(p.MaxFeePerGas) {
		return errors.Wrapf(ErrNotSponsorable, "fee cap %s above limit %s", tx.GasFeeCap.String(), p.MaxFeePerGas.String())
	}
	return nil
}

func containsAddress(list []common.Address, addr common.Address) bool {
	for _, a := range list {
		if a == addr {
			return true
		}
	}
	return false
}

// Countersigner holds the sponsor key and countersigns pending envelopes
// that pass its policy.
type Countersigner struct {
	key    *ecdsa.PrivateKey
	addr   common.Address
	policy Policy
}

// NewCountersigner creates a countersigner from the sponsor key.
func NewCountersigner(key *ecdsa.PrivateKey, policy Policy) *Countersigner {
	return &Countersigner{
		key:    key,
		addr:   crypto.PubkeyToAddress(key.PublicKey),
		policy: policy,
	}
}

// Address returns the sponsor address.
func (c *Countersigner) Address() common.Address {
	return c.addr
}

// Policy returns the active policy.
func (c *Countersigner) Policy() Policy {
	return c.policy
}

// Countersign decodes a pending envelope, verifies the sender signature,
// checks the policy and returns the fully signed wire bytes together with
// the countersigned transaction.
func (c *Countersigner) Countersign(raw []byte) ([]byte, *txtypes.FeeTokenTx, error) {
	tx := new(txtypes.FeeTokenTx)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, nil, err
	}

	if !tx.FeePayerSig.Pending() {
		return nil, nil, errors.Wrap(ErrNotSponsorable, "envelope does not request sponsorship")
	}

	sender, err := txtypes.Sender(tx)
	if err != nil {
		return nil, nil, err
	}

	if err := c.policy.Check(tx); err != nil {
		return nil, nil, err
	}

	signed, err := txtypes.SignTxAsFeePayer(tx, c.key)
	if err != nil {
		return nil, nil, err
	}

	out, err := signed.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}

	hash, err := signed.Hash()
	if err != nil {
		return nil, nil, err
	}

	log.Debug().
		Str("sender", sender.Hex()).
		Str("fee_payer", c.addr.Hex()).
		Str("tx_hash", hash.Hex()).
		Msg("Countersigned sponsored transaction")

	return out, signed, nil
}
