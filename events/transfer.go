// Package events parses and watches ERC20 Transfer events of fee tokens.
package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// TransferTopic is keccak256("Transfer(address,address,uint256)").
var TransferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// ErrNotTransfer marks logs that are not well formed ERC20 Transfer events.
var ErrNotTransfer = errors.New("log is not an ERC20 transfer")

// Transfer is one decoded ERC20 Transfer event.
type Transfer struct {
	Token       common.Address
	From        common.Address
	To          common.Address
	Value       *uint256.Int
	BlockNumber uint64
	TxHash      common.Hash
	LogIndex    uint
}

// TransferQuery builds a filter query for Transfer logs of the given tokens,
// optionally narrowed to a single recipient.
func TransferQuery(tokens []common.Address, recipient *common.Address, fromBlock, toBlock *big.Int) ethereum.FilterQuery {
	q := ethereum.FilterQuery{
		FromBlock: fromBlock,
		ToBlock:   toBlock,
		Addresses: tokens,
		Topics:    [][]common.Hash{{TransferTopic}},
	}
	if recipient != nil {
		q.Topics = append(q.Topics, nil, []common.Hash{addressTopic(*recipient)})
	}
	return q
}

// ParseTransfer decodes one log into a Transfer. A standard Transfer carries
// the sender and recipient as indexed topics and the amount as a single
// 32 byte data word.
func ParseTransfer(lg types.Log) (Transfer, error) {
	if len(lg.Topics) != 3 || lg.Topics[0] != TransferTopic {
		return Transfer{}, ErrNotTransfer
	}
	if len(lg.Data) != 32 {
		return Transfer{}, errors.Wrapf(ErrNotTransfer, "unexpected data length %d", len(lg.Data))
	}
	return Transfer{
		Token:       lg.Address,
		From:        common.BytesToAddress(lg.Topics[1].Bytes()),
		To:          common.BytesToAddress(lg.Topics[2].Bytes()),
		Value:       new(uint256.Int).SetBytes(lg.Data),
		BlockNumber: lg.BlockNumber,
		TxHash:      lg.TxHash,
		LogIndex:    lg.Index,
	}, nil
}

func addressTopic(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}
