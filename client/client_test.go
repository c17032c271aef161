package client_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/chapool/go-chapay/client"
	"github/chapool/go-chapay/internal/test"
	"github/chapool/go-chapay/txtypes"
)

var testTxHash = common.HexToHash("0x00000000000000000000000000000000000000000000000000000000000000aa")

func devnetHandler(method string, _ []json.RawMessage) (interface{}, error) {
	switch method {
	case "eth_chainId":
		return "0x539", nil
	case "eth_sendRawTransaction":
		return testTxHash.Hex(), nil
	case "eth_sendRawTransactionSync":
		return &types.Receipt{
			Status:            types.ReceiptStatusSuccessful,
			CumulativeGasUsed: 21000,
			GasUsed:           21000,
			TxHash:            testTxHash,
			Logs:              []*types.Log{},
		}, nil
	default:
		return nil, errors.Errorf("unexpected method %s", method)
	}
}

func TestSendRawTransactionRouting(t *testing.T) {
	def := test.StartRPCServer(t, devnetHandler)
	relay := test.StartRPCServer(t, devnetHandler)

	c, err := client.Dial(t.Context(), client.Config{URL: def.URL(), RelayURL: relay.URL()})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	plain, pending := signedFixtures(t)

	hash, err := c.SendRawTransaction(t.Context(), pending)
	require.NoError(t, err)
	assert.Equal(t, testTxHash, hash)
	require.Len(t, relay.CallsTo("eth_sendRawTransaction"), 1)
	require.Empty(t, def.CallsTo("eth_sendRawTransaction"))
	assert.Equal(t, hexutil.Encode(pending),
		test.StringParam(t, relay.CallsTo("eth_sendRawTransaction")[0].Params, 0))

	hash, err = c.SendRawTransaction(t.Context(), plain)
	require.NoError(t, err)
	assert.Equal(t, testTxHash, hash)
	require.Len(t, def.CallsTo("eth_sendRawTransaction"), 1)
	require.Len(t, relay.CallsTo("eth_sendRawTransaction"), 1)
}

func TestSendRawTransactionWithoutRelayFallsBack(t *testing.T) {
	def := test.StartRPCServer(t, devnetHandler)

	c, err := client.Dial(t.Context(), client.Config{URL: def.URL()})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	_, pending := signedFixtures(t)
	hash, err := c.SendRawTransaction(t.Context(), pending)
	require.NoError(t, err)
	assert.Equal(t, testTxHash, hash)
	require.Len(t, def.CallsTo("eth_sendRawTransaction"), 1)
}

func TestSendRawTransactionSync(t *testing.T) {
	def := test.StartRPCServer(t, devnetHandler)
	relay := test.StartRPCServer(t, devnetHandler)

	c, err := client.Dial(t.Context(), client.Config{URL: def.URL(), RelayURL: relay.URL()})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	plain, pending := signedFixtures(t)

	receipt, err := c.SendRawTransactionSync(t.Context(), plain, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	calls := def.CallsTo("eth_sendRawTransactionSync")
	require.Len(t, calls, 1)
	// raw bytes plus the millisecond timeout
	require.Len(t, calls[0].Params, 2)

	_, err = c.SendRawTransactionSync(t.Context(), pending, 0)
	require.NoError(t, err)
	calls = relay.CallsTo("eth_sendRawTransactionSync")
	require.Len(t, calls, 1)
	require.Len(t, calls[0].Params, 1)
}

func TestRPCErrorsPropagateUnchanged(t *testing.T) {
	def := test.StartRPCServer(t, func(method string, _ []json.RawMessage) (interface{}, error) {
		if method == "eth_chainId" {
			return "0x539", nil
		}
		return nil, errors.New("known transaction: feetoken")
	})

	c, err := client.Dial(t.Context(), client.Config{URL: def.URL()})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	plain, _ := signedFixtures(t)
	_, err = c.SendRawTransaction(t.Context(), plain)
	require.Error(t, err)

	var rpcErr rpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32000, rpcErr.ErrorCode())
	assert.Contains(t, err.Error(), "known transaction: feetoken")
}

func TestSendTransactionChainIDGuard(t *testing.T) {
	def := test.StartRPCServer(t, devnetHandler)

	c, err := client.Dial(t.Context(), client.Config{URL: def.URL()})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	key, err := crypto.HexToECDSA("b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291")
	require.NoError(t, err)

	wrongChain := fixtureTx()
	wrongChain.ChainID.SetUint64(999)
	signed, err := txtypes.SignTx(wrongChain, key)
	require.NoError(t, err)

	_, err = c.SendTransaction(t.Context(), signed)
	require.ErrorIs(t, err, txtypes.ErrValidation)
	require.Empty(t, def.CallsTo("eth_sendRawTransaction"))

	signed, err = txtypes.SignTx(fixtureTx(), key)
	require.NoError(t, err)
	hash, err := c.SendTransaction(t.Context(), signed)
	require.NoError(t, err)
	assert.Equal(t, testTxHash, hash)
	require.Len(t, def.CallsTo("eth_sendRawTransaction"), 1)
}

func TestDialRequiresURL(t *testing.T) {
	_, err := client.Dial(t.Context(), client.Config{})
	require.Error(t, err)
}
