// Package contracts holds minimal hand rolled bindings for the protocol
// contracts the SDK talks to: fee token ERC20s, the fee swap quoter, the
// sponsor policy registry and the batch executor.
package contracts

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// Caller is the read-only contract call surface, satisfied by client.Client.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
}

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

func viewCall(ctx context.Context, caller Caller, contract abi.ABI, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	input, err := contract.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "packing %s", method)
	}
	out, err := caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input})
	if err != nil {
		return nil, err
	}
	res, err := contract.Unpack(method, out)
	if err != nil {
		return nil, errors.Wrapf(err, "unpacking %s result", method)
	}
	return res, nil
}

func bigOrZero(x *uint256.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return x.ToBig()
}
