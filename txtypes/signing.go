package txtypes

import (
	"bytes"
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// SenderSigHash returns the digest the transaction sender signs. It covers
// the 11 base wire fields and nothing else, so the sponsorship decision can
// change without invalidating the sender signature.
func SenderSigHash(tx *FeeTokenTx) common.Hash {
	return prefixedRLPHash(FeeTokenTxType, tx.payloadFields())
}

// FeePayerSigHash returns the digest the fee payer countersigns. It covers
// the base fields plus the sender signature, binding the sponsorship to one
// specific signed transaction.
func FeePayerSigHash(tx *FeeTokenTx) (common.Hash, error) {
	if !tx.SenderSigned() {
		return common.Hash{}, errors.Wrap(ErrSignState, "fee payer digest requires a sender signature")
	}
	fields := append(tx.payloadFields(), tx.V, tx.R, tx.S)
	return prefixedRLPHash(FeeTokenTxType, fields), nil
}

func prefixedRLPHash(prefix byte, x interface{}) common.Hash {
	var buf bytes.Buffer
	buf.WriteByte(prefix)
	// encoding fixed in-memory fields into a buffer cannot fail
	_ = rlp.Encode(&buf, x)
	return crypto.Keccak256Hash(buf.Bytes())
}

// Hash returns the keccak digest of the serialized transaction in its
// current state. It changes as signatures are attached; SenderSigHash is the
// stable identifier of the signed intent.
func (tx *FeeTokenTx) Hash() (common.Hash, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(raw), nil
}

// SignTx signs the sender payload with prv and returns a copy carrying the
// signature. Sponsorship intent materializes here: a transaction with a fee
// payer requested leaves with its sponsor slot pending. A previous
// countersignature is voided because it covered the replaced sender
// signature.
func SignTx(tx *FeeTokenTx, prv *ecdsa.PrivateKey) (*FeeTokenTx, error) {
	h := SenderSigHash(tx)
	sig, err := crypto.Sign(h[:], prv)
	if err != nil {
		return nil, errors.Wrap(err, "signing sender digest")
	}
	cpy := tx.Copy()
	cpy.V, cpy.R, cpy.S = sigValues(sig)
	if cpy.SponsorshipRequested() {
		cpy.FeePayerSig = PendingFeePayerSig()
	} else {
		cpy.FeePayerSig = FeePayerSignature{}
	}
	return cpy, nil
}

// SignTxAsFeePayer countersigns a sender signed transaction and returns a
// copy with the sponsor slot filled.
func SignTxAsFeePayer(tx *FeeTokenTx, prv *ecdsa.PrivateKey) (*FeeTokenTx, error) {
	h, err := FeePayerSigHash(tx)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(h[:], prv)
	if err != nil {
		return nil, errors.Wrap(err, "signing fee payer digest")
	}
	cpy := tx.Copy()
	v, r, s := sigValues(sig)
	cpy.FeePayerSig = SignedFeePayerSig(v, r, s)
	return cpy, nil
}

// Sender recovers the address that produced the sender signature.
func Sender(tx *FeeTokenTx) (common.Address, error) {
	if !tx.SenderSigned() {
		return common.Address{}, errors.Wrap(ErrSignState, "transaction is not sender signed")
	}
	return recoverAddress(SenderSigHash(tx), tx.V, tx.R, tx.S)
}

// FeePayerAddress recovers the address that countersigned the transaction.
func FeePayerAddress(tx *FeeTokenTx) (common.Address, error) {
	if !tx.FeePayerSig.Signed() {
		return common.Address{}, errors.Wrap(ErrSignState, "transaction has no fee payer signature")
	}
	h, err := FeePayerSigHash(tx)
	if err != nil {
		return common.Address{}, err
	}
	return recoverAddress(h, tx.FeePayerSig.V, tx.FeePayerSig.R, tx.FeePayerSig.S)
}

// sigValues splits a 65 byte [R || S || V] signature into its wire values.
func sigValues(sig []byte) (v, r, s *uint256.Int) {
	r = new(uint256.Int).SetBytes(sig[:32])
	s = new(uint256.Int).SetBytes(sig[32:64])
	v = uint256.NewInt(uint64(sig[64]))
	return v, r, s
}

func recoverAddress(digest common.Hash, v, r, s *uint256.Int) (common.Address, error) {
	if v == nil || r == nil || s == nil {
		return common.Address{}, errors.Wrap(ErrValidation, "missing signature values")
	}
	if !v.LtUint64(2) || !crypto.ValidateSignatureValues(byte(v.Uint64()), r.ToBig(), s.ToBig(), true) {
		return common.Address{}, errors.Wrap(ErrValidation, "invalid signature values")
	}
	sig := make([]byte, crypto.SignatureLength)
	rb, sb := r.Bytes32(), s.Bytes32()
	copy(sig[:32], rb[:])
	copy(sig[32:64], sb[:])
	sig[64] = byte(v.Uint64())

	pub, err := crypto.Ecrecover(digest[:], sig)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "recovering public key")
	}
	if len(pub) == 0 || pub[0] != 4 {
		return common.Address{}, errors.Wrap(ErrValidation, "invalid recovered public key")
	}
	var addr common.Address
	copy(addr[:], crypto.Keccak256(pub[1:])[12:])
	return addr, nil
}
