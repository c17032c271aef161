package txtypes

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// Outer list arities of the serialized form. The sender signature appends
// three elements to the unsigned layout; the sponsor slot appends one element
// (empty or the pending sentinel) or the three fee payer signature values.
const (
	fieldCountUnsigned     = 11
	fieldCountSenderSigned = 14
	fieldCountSponsorSlot  = 15
	fieldCountFullySigned  = 17
)

// MarshalBinary serializes the transaction into its typed wire form: the
// FeeTokenTxType byte followed by the RLP payload. The outer arity follows
// from the signature state; inconsistent states return ErrEncoding.
func (tx *FeeTokenTx) MarshalBinary() ([]byte, error) {
	elems := tx.payloadFields()
	switch tx.FeePayerSig.State {
	case FeePayerSigAbsent:
		if tx.SenderSigned() {
			elems = append(elems, tx.V, tx.R, tx.S)
		}
	case FeePayerSigPending:
		if !tx.SenderSigned() {
			return nil, errors.Wrap(ErrEncoding, "pending sponsor slot without sender signature")
		}
		elems = append(elems, tx.V, tx.R, tx.S, []byte{FeePayerPendingSentinel})
	case FeePayerSigSigned:
		if !tx.SenderSigned() {
			return nil, errors.Wrap(ErrEncoding, "fee payer signature without sender signature")
		}
		if tx.FeePayerSig.V == nil || tx.FeePayerSig.R == nil || tx.FeePayerSig.S == nil {
			return nil, errors.Wrap(ErrEncoding, "signed sponsor slot is missing signature values")
		}
		elems = append(elems, tx.V, tx.R, tx.S, tx.FeePayerSig.V, tx.FeePayerSig.R, tx.FeePayerSig.S)
	default:
		return nil, errors.Wrapf(ErrEncoding, "unknown sponsor slot state %d", tx.FeePayerSig.State)
	}

	payload, err := rlp.EncodeToBytes(elems)
	if err != nil {
		return nil, errors.Wrap(err, "encoding fee token tx payload")
	}
	return append([]byte{FeeTokenTxType}, payload...), nil
}

// UnmarshalBinary parses a typed wire transaction. The receiver is replaced
// only on success; a failed decode leaves it untouched.
func (tx *FeeTokenTx) UnmarshalBinary(b []byte) error {
	if len(b) == 0 {
		return errors.Wrap(ErrMalformedEnvelope, "empty input")
	}
	if b[0] != FeeTokenTxType {
		return errors.Wrapf(ErrTxTypeMismatch, "type byte %#x", b[0])
	}
	var elems []rlp.RawValue
	if err := rlp.DecodeBytes(b[1:], &elems); err != nil {
		return errors.Wrap(err, "decoding fee token tx payload")
	}

	var dec FeeTokenTx
	if err := dec.parsePayload(elems); err != nil {
		return err
	}
	*tx = dec
	return nil
}

func (tx *FeeTokenTx) parsePayload(elems []rlp.RawValue) error {
	switch len(elems) {
	case fieldCountUnsigned, fieldCountSenderSigned, fieldCountSponsorSlot, fieldCountFullySigned:
	default:
		return errors.Wrapf(ErrMalformedEnvelope, "outer list has %d elements", len(elems))
	}

	var err error
	if tx.ChainID, err = decodeU256(elems[0], "chainId"); err != nil {
		return err
	}
	if tx.Nonce, err = decodeUint64(elems[1], "nonce"); err != nil {
		return err
	}
	if tx.GasTipCap, err = decodeU256(elems[2], "maxPriorityFeePerGas"); err != nil {
		return err
	}
	if tx.GasFeeCap, err = decodeU256(elems[3], "maxFeePerGas"); err != nil {
		return err
	}
	if tx.Gas, err = decodeUint64(elems[4], "gas"); err != nil {
		return err
	}
	if tx.To, err = decodeOptionalAddress(elems[5], "to"); err != nil {
		return err
	}
	if tx.Value, err = decodeU256(elems[6], "value"); err != nil {
		return err
	}
	if tx.Data, err = decodeByteString(elems[7], "data"); err != nil {
		return err
	}
	if err = decodeInto(elems[8], &tx.AccessList, "accessList"); err != nil {
		return err
	}
	if err = decodeInto(elems[9], &tx.AuthList, "authorizationList"); err != nil {
		return err
	}
	if tx.FeeToken, err = decodeOptionalAddress(elems[10], "feeToken"); err != nil {
		return err
	}

	if len(elems) == fieldCountUnsigned {
		return nil
	}
	if tx.V, err = decodeU256(elems[11], "v"); err != nil {
		return err
	}
	if tx.R, err = decodeU256(elems[12], "r"); err != nil {
		return err
	}
	if tx.S, err = decodeU256(elems[13], "s"); err != nil {
		return err
	}

	switch len(elems) {
	case fieldCountSponsorSlot:
		if tx.FeePayerSig, err = decodeSponsorSlot(elems[14]); err != nil {
			return err
		}
	case fieldCountFullySigned:
		var fv, fr, fs *uint256.Int
		if fv, err = decodeU256(elems[14], "feePayerV"); err != nil {
			return err
		}
		if fr, err = decodeU256(elems[15], "feePayerR"); err != nil {
			return err
		}
		if fs, err = decodeU256(elems[16], "feePayerS"); err != nil {
			return err
		}
		tx.FeePayerSig = SignedFeePayerSig(fv, fr, fs)
	}
	return nil
}

// decodeSponsorSlot maps the single slot element of the 15 element layout.
// This is the only place the pending sentinel is interpreted.
func decodeSponsorSlot(raw rlp.RawValue) (FeePayerSignature, error) {
	var b []byte
	if err := rlp.DecodeBytes(raw, &b); err != nil {
		return FeePayerSignature{}, errors.Wrapf(ErrMalformedEnvelope, "sponsor slot: %v", err)
	}
	switch {
	case len(b) == 0:
		return FeePayerSignature{}, nil
	case len(b) == 1 && b[0] == FeePayerPendingSentinel:
		return PendingFeePayerSig(), nil
	default:
		return FeePayerSignature{}, errors.Wrapf(ErrMalformedEnvelope, "sponsor slot value %#x", b)
	}
}

// payloadFields returns the 11 base wire fields in protocol order. Unset
// numeric fields encode as zero and unset lists as empty, so a request stage
// transaction still has a canonical serialized form.
func (tx *FeeTokenTx) payloadFields() []interface{} {
	return []interface{}{
		u256OrZero(tx.ChainID),
		tx.Nonce,
		u256OrZero(tx.GasTipCap),
		u256OrZero(tx.GasFeeCap),
		tx.Gas,
		addressBytes(tx.To),
		u256OrZero(tx.Value),
		tx.Data,
		accessListOrEmpty(tx.AccessList),
		authListOrEmpty(tx.AuthList),
		addressBytes(tx.FeeToken),
	}
}

func u256OrZero(i *uint256.Int) *uint256.Int {
	if i == nil {
		return new(uint256.Int)
	}
	return i
}

func addressBytes(a *common.Address) []byte {
	if a == nil {
		return []byte{}
	}
	return a.Bytes()
}

func accessListOrEmpty(al types.AccessList) types.AccessList {
	if al == nil {
		return types.AccessList{}
	}
	return al
}

func authListOrEmpty(al []types.SetCodeAuthorization) []types.SetCodeAuthorization {
	if al == nil {
		return []types.SetCodeAuthorization{}
	}
	return al
}

func decodeU256(raw rlp.RawValue, field string) (*uint256.Int, error) {
	v := new(uint256.Int)
	if err := rlp.DecodeBytes(raw, v); err != nil {
		return nil, errors.Wrapf(ErrMalformedEnvelope, "field %s: %v", field, err)
	}
	return v, nil
}

func decodeUint64(raw rlp.RawValue, field string) (uint64, error) {
	var v uint64
	if err := rlp.DecodeBytes(raw, &v); err != nil {
		return 0, errors.Wrapf(ErrMalformedEnvelope, "field %s: %v", field, err)
	}
	return v, nil
}

func decodeByteString(raw rlp.RawValue, field string) ([]byte, error) {
	var b []byte
	if err := rlp.DecodeBytes(raw, &b); err != nil {
		return nil, errors.Wrapf(ErrMalformedEnvelope, "field %s: %v", field, err)
	}
	return b, nil
}

func decodeOptionalAddress(raw rlp.RawValue, field string) (*common.Address, error) {
	b, err := decodeByteString(raw, field)
	if err != nil {
		return nil, err
	}
	switch len(b) {
	case 0:
		return nil, nil
	case common.AddressLength:
		addr := common.BytesToAddress(b)
		return &addr, nil
	default:
		return nil, errors.Wrapf(ErrMalformedEnvelope, "field %s: address has %d bytes", field, len(b))
	}
}

func decodeInto(raw rlp.RawValue, v interface{}, field string) error {
	if err := rlp.DecodeBytes(raw, v); err != nil {
		return errors.Wrapf(ErrMalformedEnvelope, "field %s: %v", field, err)
	}
	return nil
}
