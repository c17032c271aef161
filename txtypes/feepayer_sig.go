package txtypes

import "github.com/holiman/uint256"

// FeePayerSigState enumerates the sponsor slot states of a fee token
// transaction.
type FeePayerSigState uint8

const (
	// FeePayerSigAbsent means sponsorship was never requested.
	FeePayerSigAbsent FeePayerSigState = iota
	// FeePayerSigPending means the sender opted into sponsorship but the fee
	// payer has not countersigned yet. On the wire this is the pending
	// sentinel byte.
	FeePayerSigPending
	// FeePayerSigSigned means the fee payer countersigned.
	FeePayerSigSigned
)

func (s FeePayerSigState) String() string {
	switch s {
	case FeePayerSigAbsent:
		return "absent"
	case FeePayerSigPending:
		return "pending"
	case FeePayerSigSigned:
		return "signed"
	default:
		return "unknown"
	}
}

// FeePayerSignature is the three-state sponsor slot of a fee token
// transaction. The zero value is the absent state. V, R and S are set only in
// the signed state.
type FeePayerSignature struct {
	State FeePayerSigState
	V     *uint256.Int
	R     *uint256.Int
	S     *uint256.Int
}

// PendingFeePayerSig returns a slot marked for sponsorship without a
// countersignature.
func PendingFeePayerSig() FeePayerSignature {
	return FeePayerSignature{State: FeePayerSigPending}
}

// SignedFeePayerSig returns a countersigned slot.
func SignedFeePayerSig(v, r, s *uint256.Int) FeePayerSignature {
	return FeePayerSignature{State: FeePayerSigSigned, V: v, R: r, S: s}
}

func (f FeePayerSignature) Absent() bool  { return f.State == FeePayerSigAbsent }
func (f FeePayerSignature) Pending() bool { return f.State == FeePayerSigPending }
func (f FeePayerSignature) Signed() bool  { return f.State == FeePayerSigSigned }

func (f FeePayerSignature) copy() FeePayerSignature {
	cpy := FeePayerSignature{State: f.State}
	if f.V != nil {
		cpy.V = new(uint256.Int).Set(f.V)
	}
	if f.R != nil {
		cpy.R = new(uint256.Int).Set(f.R)
	}
	if f.S != nil {
		cpy.S = new(uint256.Int).Set(f.S)
	}
	return cpy
}
