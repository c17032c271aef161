package contracts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

const batchExecutorABIJSON = `[
	{"type":"function","name":"executeBatch","stateMutability":"payable","inputs":[{"name":"calls","type":"tuple[]","components":[{"name":"target","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"}]}],"outputs":[]}
]`

var batchExecutorABI = mustParseABI(batchExecutorABIJSON)

// BatchCall is one element of a multi call payload.
type BatchCall struct {
	Target common.Address
	Value  *uint256.Int
	Data   []byte
}

// PackExecuteBatch builds executeBatch calldata from the given calls. The
// result is the Data payload of a transaction addressed to the batch
// executor.
func PackExecuteBatch(calls []BatchCall) ([]byte, error) {
	type abiCall struct {
		Target common.Address
		Value  *big.Int
		Data   []byte
	}
	enc := make([]abiCall, len(calls))
	for i, c := range calls {
		enc[i] = abiCall{Target: c.Target, Value: bigOrZero(c.Value), Data: c.Data}
	}
	data, err := batchExecutorABI.Pack("executeBatch", enc)
	if err != nil {
		return nil, errors.Wrap(err, "packing executeBatch")
	}
	return data, nil
}
