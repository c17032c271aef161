package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const feeSwapABIJSON = `[
	{"type":"function","name":"quoteNativeToToken","stateMutability":"view","inputs":[{"name":"token","type":"address"},{"name":"weiAmount","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]}
]`

var feeSwapABI = mustParseABI(feeSwapABIJSON)

// FeeSwap binds the protocol fee swap quoter.
type FeeSwap struct {
	addr   common.Address
	caller Caller
}

// NewFeeSwap binds the quoter at addr.
func NewFeeSwap(addr common.Address, caller Caller) *FeeSwap {
	return &FeeSwap{addr: addr, caller: caller}
}

// QuoteNativeToToken returns how much of token covers a native fee of
// weiAmount.
func (f *FeeSwap) QuoteNativeToToken(ctx context.Context, token common.Address, weiAmount *uint256.Int) (*uint256.Int, error) {
	res, err := viewCall(ctx, f.caller, feeSwapABI, f.addr, "quoteNativeToToken", token, bigOrZero(weiAmount))
	if err != nil {
		return nil, err
	}
	return uint256.MustFromBig(res[0].(*big.Int)), nil
}
