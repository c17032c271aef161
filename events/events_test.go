package events_test

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/chapool/go-chapay/events"
)

var (
	feeToken = common.HexToAddress("0x000000000000000000000000000000000000fee1")
	alice    = common.HexToAddress("0x71562b71999873db5b286df957af199ec94617f7")
	bob      = common.HexToAddress("0xb94f5374fce5edbc8e2a8697c15331677e6ebf0b")
)

func transferLog(token, from, to common.Address, amount uint64, block uint64) types.Log {
	return types.Log{
		Address: token,
		Topics: []common.Hash{
			events.TransferTopic,
			common.BytesToHash(from.Bytes()),
			common.BytesToHash(to.Bytes()),
		},
		Data:        common.LeftPadBytes(new(big.Int).SetUint64(amount).Bytes(), 32),
		BlockNumber: block,
		TxHash:      common.HexToHash("0x0102"),
		Index:       3,
	}
}

func TestTransferTopic(t *testing.T) {
	assert.Equal(t,
		"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
		events.TransferTopic.Hex())
}

func TestParseTransfer(t *testing.T) {
	tr, err := events.ParseTransfer(transferLog(feeToken, alice, bob, 1_000_000, 42))
	require.NoError(t, err)

	assert.Equal(t, feeToken, tr.Token)
	assert.Equal(t, alice, tr.From)
	assert.Equal(t, bob, tr.To)
	assert.Equal(t, uint256.NewInt(1_000_000), tr.Value)
	assert.Equal(t, uint64(42), tr.BlockNumber)
	assert.Equal(t, uint(3), tr.LogIndex)
}

func TestParseTransferRejectsMalformedLogs(t *testing.T) {
	missingTopic := transferLog(feeToken, alice, bob, 1, 1)
	missingTopic.Topics = missingTopic.Topics[:2]
	_, err := events.ParseTransfer(missingTopic)
	require.ErrorIs(t, err, events.ErrNotTransfer)

	wrongSig := transferLog(feeToken, alice, bob, 1, 1)
	wrongSig.Topics[0] = common.HexToHash("0x01")
	_, err = events.ParseTransfer(wrongSig)
	require.ErrorIs(t, err, events.ErrNotTransfer)

	badData := transferLog(feeToken, alice, bob, 1, 1)
	badData.Data = badData.Data[:31]
	_, err = events.ParseTransfer(badData)
	require.ErrorIs(t, err, events.ErrNotTransfer)
}

func TestTransferQuery(t *testing.T) {
	q := events.TransferQuery([]common.Address{feeToken}, nil, big.NewInt(10), big.NewInt(20))
	assert.Equal(t, []common.Address{feeToken}, q.Addresses)
	require.Len(t, q.Topics, 1)
	assert.Equal(t, []common.Hash{events.TransferTopic}, q.Topics[0])

	q = events.TransferQuery([]common.Address{feeToken}, &bob, big.NewInt(10), big.NewInt(20))
	require.Len(t, q.Topics, 3)
	assert.Nil(t, q.Topics[1])
	assert.Equal(t, []common.Hash{common.BytesToHash(bob.Bytes())}, q.Topics[2])
}

type fakeChain struct {
	mu      sync.Mutex
	head    uint64
	headErr error
	logs    []types.Log
}

func (f *fakeChain) BlockNumber(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.headErr != nil {
		return 0, f.headErr
	}
	return f.head, nil
}

func (f *fakeChain) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.Log
	for _, lg := range f.logs {
		if q.FromBlock.Uint64() <= lg.BlockNumber && lg.BlockNumber <= q.ToBlock.Uint64() {
			out = append(out, lg)
		}
	}
	return out, nil
}

func (f *fakeChain) advance(head uint64, logs ...types.Log) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.head = head
	f.logs = append(f.logs, logs...)
}

func TestWatcherDeliversTransfers(t *testing.T) {
	chain := &fakeChain{head: 5}

	w := events.NewWatcher(chain, events.WatcherConfig{
		Tokens:   []common.Address{feeToken},
		Interval: 10 * time.Millisecond,
	})
	defer w.Stop()

	got := make(chan events.Transfer, 4)
	require.NoError(t, w.Start(t.Context(), func(tr events.Transfer) { got <- tr }))

	malformed := transferLog(feeToken, alice, bob, 2, 7)
	malformed.Topics = malformed.Topics[:2]
	chain.advance(8, transferLog(feeToken, alice, bob, 77, 7), malformed)

	select {
	case tr := <-got:
		assert.Equal(t, feeToken, tr.Token)
		assert.Equal(t, alice, tr.From)
		assert.Equal(t, bob, tr.To)
		assert.Equal(t, uint256.NewInt(77), tr.Value)
		assert.Equal(t, uint64(7), tr.BlockNumber)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for transfer")
	}

	// The malformed log is skipped and scanned ranges are not revisited.
	select {
	case tr := <-got:
		t.Fatalf("unexpected extra transfer: %+v", tr)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcherStartRequiresHead(t *testing.T) {
	chain := &fakeChain{headErr: errors.New("rpc down")}

	w := events.NewWatcher(chain, events.WatcherConfig{Tokens: []common.Address{feeToken}})
	err := w.Start(t.Context(), func(events.Transfer) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching start block")
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	chain := &fakeChain{}
	w := events.NewWatcher(chain, events.WatcherConfig{Tokens: []common.Address{feeToken}})
	require.NoError(t, w.Start(t.Context(), func(events.Transfer) {}))
	w.Stop()
	w.Stop()
}
