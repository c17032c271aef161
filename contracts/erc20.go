package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

const erc20ABIJSON = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

var erc20ABI = mustParseABI(erc20ABIJSON)

// ERC20 binds a fee token contract at a fixed address.
type ERC20 struct {
	addr   common.Address
	caller Caller
}

// NewERC20 binds the fee token at addr.
func NewERC20(addr common.Address, caller Caller) *ERC20 {
	return &ERC20{addr: addr, caller: caller}
}

// Address returns the bound contract address.
func (e *ERC20) Address() common.Address {
	return e.addr
}

// BalanceOf returns the token balance of owner.
func (e *ERC20) BalanceOf(ctx context.Context, owner common.Address) (*uint256.Int, error) {
	res, err := viewCall(ctx, e.caller, erc20ABI, e.addr, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	return uint256.MustFromBig(res[0].(*big.Int)), nil
}

// Allowance returns how much spender may draw from owner.
func (e *ERC20) Allowance(ctx context.Context, owner, spender common.Address) (*uint256.Int, error) {
	res, err := viewCall(ctx, e.caller, erc20ABI, e.addr, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	return uint256.MustFromBig(res[0].(*big.Int)), nil
}

// Decimals returns the token's decimal count.
func (e *ERC20) Decimals(ctx context.Context) (uint8, error) {
	res, err := viewCall(ctx, e.caller, erc20ABI, e.addr, "decimals")
	if err != nil {
		return 0, err
	}
	return res[0].(uint8), nil
}

// Symbol returns the token's ticker symbol.
func (e *ERC20) Symbol(ctx context.Context) (string, error) {
	res, err := viewCall(ctx, e.caller, erc20ABI, e.addr, "symbol")
	if err != nil {
		return "", err
	}
	return res[0].(string), nil
}

// PackTransfer builds transfer(to, amount) calldata for a token payment.
func PackTransfer(to common.Address, amount *uint256.Int) ([]byte, error) {
	data, err := erc20ABI.Pack("transfer", to, bigOrZero(amount))
	if err != nil {
		return nil, errors.Wrap(err, "packing transfer")
	}
	return data, nil
}

// PackApprove builds approve(spender, amount) calldata.
func PackApprove(spender common.Address, amount *uint256.Int) ([]byte, error) {
	data, err := erc20ABI.Pack("approve", spender, bigOrZero(amount))
	if err != nil {
		return nil, errors.Wrap(err, "packing approve")
	}
	return data, nil
}
