package tx

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/chapool/go-chapay/internal/test"
	"github/chapool/go-chapay/txtypes"
)

func decodableTx() *txtypes.FeeTokenTx {
	recipient := common.HexToAddress("0x095e7baea6a6c7c4c2dfeb977efac326af552d87")
	feeToken := common.HexToAddress("0x000000000000000000000000000000000000fee1")

	return &txtypes.FeeTokenTx{
		ChainID:   uint256.NewInt(1337),
		Nonce:     7,
		GasTipCap: uint256.NewInt(1_000_000_000),
		GasFeeCap: uint256.NewInt(30_000_000_000),
		Gas:       90_000,
		To:        &recipient,
		Value:     uint256.NewInt(1_000_000_000_000_000_000),
		Data:      hexutil.MustDecode("0xa9059cbb"),
		AccessList: types.AccessList{
			{Address: recipient, StorageKeys: []common.Hash{{}}},
		},
		FeeToken: &feeToken,
	}
}

func TestDecodeSignableEnvelope(t *testing.T) {
	raw, err := decodableTx().MarshalBinary()
	require.NoError(t, err)

	out, err := runDecode(hexutil.Encode(raw))
	require.NoError(t, err)

	test.Snapshoter.SaveString(t, out)
}

func TestDecodePendingSponsorshipEnvelope(t *testing.T) {
	key, err := crypto.HexToECDSA("b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291")
	require.NoError(t, err)
	sender := strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())
	payer := common.HexToAddress("0x00000000000000000000000000000000deadbeef")

	signed, err := txtypes.SignTx(decodableTx().RequestSponsorship(&payer), key)
	require.NoError(t, err)
	raw, err := signed.MarshalBinary()
	require.NoError(t, err)

	out, err := runDecode(hexutil.Encode(raw))
	require.NoError(t, err)

	assert.Contains(t, out, "pending-sponsorship")
	assert.Contains(t, out, "pending countersignature")
	assert.Contains(t, out, sender)
	assert.Contains(t, out, "Tx Hash:")
}

func TestDecodeRejectsBadInput(t *testing.T) {
	_, err := runDecode("not hex")
	require.Error(t, err)

	_, err = runDecode("0x02f86b0180")
	require.Error(t, err)
}
