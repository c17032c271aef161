// Package txtypes implements the Chapay fee token transaction: an EIP-1559
// style typed transaction extended with an optional ERC-20 fee token and an
// optional fee payer countersignature, including its wire codec and both
// signing digests.
package txtypes

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// FeeTokenTxType is the EIP-2718 type byte of a fee token transaction.
const FeeTokenTxType = 0x77

// FeePayerPendingSentinel is the single reserved byte that marks a serialized
// transaction as sponsored but not yet countersigned. The value is fixed by
// the network protocol; relays match on it byte-exactly.
const FeePayerPendingSentinel byte = 0x00

// FeeTokenTx is the Chapay typed transaction. It does not implement
// go-ethereum's types.TxData (that interface is sealed); it carries its own
// codec and signing rules instead.
//
// Numeric fields are nil while a request is still being built, for example
// before gas estimation. Serialization treats nil as zero and decoding always
// produces structurally complete values.
type FeeTokenTx struct {
	ChainID    *uint256.Int
	Nonce      uint64
	GasTipCap  *uint256.Int // maxPriorityFeePerGas
	GasFeeCap  *uint256.Int // maxFeePerGas
	Gas        uint64
	To         *common.Address // nil means contract creation
	Value      *uint256.Int
	Data       []byte
	AccessList types.AccessList
	AuthList   []types.SetCodeAuthorization

	// FeeToken selects the ERC-20 the fee is charged in. Nil means the fee
	// is paid in the native currency.
	FeeToken *common.Address

	// FeePayer records sponsorship intent while the transaction is being
	// built. It is not a wire field; the serialized form carries only the
	// sponsor slot state.
	FeePayer *common.Address

	// Sender signature values. All three are nil until SignTx.
	V *uint256.Int
	R *uint256.Int
	S *uint256.Int

	// FeePayerSig is the sponsor slot. The zero value is absent.
	FeePayerSig FeePayerSignature
}

// SenderSigned reports whether the sender signature slot is populated.
func (tx *FeeTokenTx) SenderSigned() bool {
	return tx.V != nil && tx.R != nil && tx.S != nil
}

// SponsorshipRequested reports whether the transaction wants a fee payer,
// either as construction-time intent or as an already materialized sponsor
// slot.
func (tx *FeeTokenTx) SponsorshipRequested() bool {
	return tx.FeePayer != nil || !tx.FeePayerSig.Absent()
}

// ContractCreation reports whether the transaction deploys code.
func (tx *FeeTokenTx) ContractCreation() bool {
	return tx.To == nil
}

// Complete reports whether the transaction carries every field required for
// submission, including the sender signature.
func (tx *FeeTokenTx) Complete() bool {
	return tx.signable() && tx.SenderSigned()
}

func (tx *FeeTokenTx) signable() bool {
	return tx.ChainID != nil && tx.GasTipCap != nil && tx.GasFeeCap != nil && tx.Gas > 0
}

// TxStage identifies where a transaction sits in its signing lifecycle.
type TxStage uint8

const (
	// StageRequest is a partially built transaction, typically awaiting gas
	// estimation.
	StageRequest TxStage = iota
	// StageSignable has every field the sender signature covers.
	StageSignable
	// StageSenderSigned is sender signed with no sponsorship involved and
	// ready for submission.
	StageSenderSigned
	// StagePendingSponsorship is sender signed and waiting for the fee payer
	// countersignature.
	StagePendingSponsorship
	// StageFullySigned carries both signatures.
	StageFullySigned
)

func (s TxStage) String() string {
	switch s {
	case StageRequest:
		return "request"
	case StageSignable:
		return "signable"
	case StageSenderSigned:
		return "sender-signed"
	case StagePendingSponsorship:
		return "pending-sponsorship"
	case StageFullySigned:
		return "fully-signed"
	default:
		return "unknown"
	}
}

// Stage derives the lifecycle stage from the populated fields. Stages only
// move forward: the signing helpers return copies and never clear a signature
// except when the sender payload itself is re-signed.
func (tx *FeeTokenTx) Stage() TxStage {
	if !tx.SenderSigned() {
		if tx.signable() {
			return StageSignable
		}
		return StageRequest
	}
	switch {
	case tx.FeePayerSig.Signed():
		return StageFullySigned
	case tx.FeePayerSig.Pending():
		return StagePendingSponsorship
	default:
		return StageSenderSigned
	}
}

// RequestSponsorship returns a copy marked for fee sponsorship. On an
// unsigned transaction the intent materializes when the sender signs; on a
// sender signed one the sponsor slot moves to pending immediately. The sender
// signature is unaffected either way.
func (tx *FeeTokenTx) RequestSponsorship(feePayer *common.Address) *FeeTokenTx {
	cpy := tx.Copy()
	cpy.FeePayer = copyAddressPtr(feePayer)
	if cpy.SenderSigned() && cpy.FeePayerSig.Absent() {
		cpy.FeePayerSig = PendingFeePayerSig()
	}
	return cpy
}

// Copy returns a deep copy of the transaction.
func (tx *FeeTokenTx) Copy() *FeeTokenTx {
	cpy := &FeeTokenTx{
		ChainID:     copyU256(tx.ChainID),
		Nonce:       tx.Nonce,
		GasTipCap:   copyU256(tx.GasTipCap),
		GasFeeCap:   copyU256(tx.GasFeeCap),
		Gas:         tx.Gas,
		To:          copyAddressPtr(tx.To),
		Value:       copyU256(tx.Value),
		Data:        common.CopyBytes(tx.Data),
		AccessList:  make(types.AccessList, len(tx.AccessList)),
		AuthList:    make([]types.SetCodeAuthorization, len(tx.AuthList)),
		FeeToken:    copyAddressPtr(tx.FeeToken),
		FeePayer:    copyAddressPtr(tx.FeePayer),
		V:           copyU256(tx.V),
		R:           copyU256(tx.R),
		S:           copyU256(tx.S),
		FeePayerSig: tx.FeePayerSig.copy(),
	}
	copy(cpy.AccessList, tx.AccessList)
	copy(cpy.AuthList, tx.AuthList)
	return cpy
}

func copyAddressPtr(a *common.Address) *common.Address {
	if a == nil {
		return nil
	}
	cpy := *a
	return &cpy
}

func copyU256(i *uint256.Int) *uint256.Int {
	if i == nil {
		return nil
	}
	return new(uint256.Int).Set(i)
}
