package feepayer_test

import (
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/chapool/go-chapay/feepayer"
	"github/chapool/go-chapay/txtypes"
)

var (
	feeTokenAddr = common.HexToAddress("0x000000000000000000000000000000000000fee1")
	otherToken   = common.HexToAddress("0x000000000000000000000000000000000000fee2")
	recipient    = common.HexToAddress("0x095e7baea6a6c7c4c2dfeb977efac326af552d87")
)

func testKeys(t *testing.T) (senderKey, payerKey *ecdsa.PrivateKey) {
	t.Helper()

	var err error
	senderKey, err = crypto.HexToECDSA("b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291")
	require.NoError(t, err)
	payerKey, err = crypto.HexToECDSA("8a1f9a8f95be41cd7ccb6168179afb4504aefe388d1e14474d32c45c72ce7b7a")
	require.NoError(t, err)
	return senderKey, payerKey
}

func baseTx() *txtypes.FeeTokenTx {
	to := recipient
	token := feeTokenAddr
	return &txtypes.FeeTokenTx{
		ChainID:   uint256.NewInt(1337),
		Nonce:     1,
		GasTipCap: uint256.NewInt(1_000_000_000),
		GasFeeCap: uint256.NewInt(30_000_000_000),
		Gas:       90_000,
		To:        &to,
		Value:     uint256.NewInt(0),
		FeeToken:  &token,
	}
}

func pendingRaw(t *testing.T, senderKey *ecdsa.PrivateKey, payer common.Address) []byte {
	t.Helper()

	signed, err := txtypes.SignTx(baseTx().RequestSponsorship(&payer), senderKey)
	require.NoError(t, err)
	raw, err := signed.MarshalBinary()
	require.NoError(t, err)
	return raw
}

func TestPolicyCheck(t *testing.T) {
	t.Run("zero policy accepts everything", func(t *testing.T) {
		require.NoError(t, feepayer.Policy{}.Check(baseTx()))

		native := baseTx()
		native.FeeToken = nil
		require.NoError(t, feepayer.Policy{}.Check(native))
	})

	t.Run("chain pin", func(t *testing.T) {
		err := feepayer.Policy{ChainID: 119}.Check(baseTx())
		require.ErrorIs(t, err, feepayer.ErrNotSponsorable)

		require.NoError(t, feepayer.Policy{ChainID: 1337}.Check(baseTx()))
	})

	t.Run("require fee token", func(t *testing.T) {
		native := baseTx()
		native.FeeToken = nil

		err := feepayer.Policy{RequireFeeToken: true}.Check(native)
		require.ErrorIs(t, err, feepayer.ErrNotSponsorable)

		require.NoError(t, feepayer.Policy{RequireFeeToken: true}.Check(baseTx()))
	})

	t.Run("token whitelist", func(t *testing.T) {
		p := feepayer.Policy{AllowedFeeTokens: []common.Address{otherToken}}
		err := p.Check(baseTx())
		require.ErrorIs(t, err, feepayer.ErrNotSponsorable)

		p = feepayer.Policy{AllowedFeeTokens: []common.Address{otherToken, feeTokenAddr}}
		require.NoError(t, p.Check(baseTx()))

		native := baseTx()
		native.FeeToken = nil
		err = p.Check(native)
		require.ErrorIs(t, err, feepayer.ErrNotSponsorable)
	})

	t.Run("max gas", func(t *testing.T) {
		err := feepayer.Policy{MaxGas: 21_000}.Check(baseTx())
		require.ErrorIs(t, err, feepayer.ErrNotSponsorable)

		require.NoError(t, feepayer.Policy{MaxGas: 90_000}.Check(baseTx()))
	})

	t.Run("max fee per gas", func(t *testing.T) {
		err := feepayer.Policy{MaxFeePerGas: uint256.NewInt(1_000_000_000)}.Check(baseTx())
		require.ErrorIs(t, err, feepayer.ErrNotSponsorable)

		require.NoError(t, feepayer.Policy{MaxFeePerGas: uint256.NewInt(30_000_000_000)}.Check(baseTx()))
	})
}

func TestCountersignHappyPath(t *testing.T) {
	senderKey, payerKey := testKeys(t)
	cs := feepayer.NewCountersigner(payerKey, feepayer.Policy{
		AllowedFeeTokens: []common.Address{feeTokenAddr},
		ChainID:          1337,
	})
	assert.Equal(t, crypto.PubkeyToAddress(payerKey.PublicKey), cs.Address())

	out, signed, err := cs.Countersign(pendingRaw(t, senderKey, cs.Address()))
	require.NoError(t, err)
	require.Equal(t, txtypes.StageFullySigned, signed.Stage())

	payer, err := txtypes.FeePayerAddress(signed)
	require.NoError(t, err)
	assert.Equal(t, cs.Address(), payer)

	sender, err := txtypes.Sender(signed)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(senderKey.PublicKey), sender)

	var decoded txtypes.FeeTokenTx
	require.NoError(t, decoded.UnmarshalBinary(out))
	assert.Equal(t, txtypes.StageFullySigned, decoded.Stage())

	wantHash, err := signed.Hash()
	require.NoError(t, err)
	gotHash, err := decoded.Hash()
	require.NoError(t, err)
	assert.Equal(t, wantHash, gotHash)
}

func TestCountersignRejectsNonPendingEnvelopes(t *testing.T) {
	senderKey, payerKey := testKeys(t)
	cs := feepayer.NewCountersigner(payerKey, feepayer.Policy{})

	// Plain sender signed transaction, no sponsorship requested.
	signed, err := txtypes.SignTx(baseTx(), senderKey)
	require.NoError(t, err)
	raw, err := signed.MarshalBinary()
	require.NoError(t, err)

	_, _, err = cs.Countersign(raw)
	require.ErrorIs(t, err, feepayer.ErrNotSponsorable)

	// Already fully signed.
	full, _, err := cs.Countersign(pendingRaw(t, senderKey, cs.Address()))
	require.NoError(t, err)
	_, _, err = cs.Countersign(full)
	require.ErrorIs(t, err, feepayer.ErrNotSponsorable)

	// Unsigned request envelope.
	raw, err = baseTx().MarshalBinary()
	require.NoError(t, err)
	_, _, err = cs.Countersign(raw)
	require.ErrorIs(t, err, feepayer.ErrNotSponsorable)
}

func TestCountersignRejectsInvalidSenderSignature(t *testing.T) {
	_, payerKey := testKeys(t)
	cs := feepayer.NewCountersigner(payerKey, feepayer.Policy{})

	tx := baseTx()
	tx.V = uint256.NewInt(27)
	tx.R = uint256.NewInt(1)
	tx.S = uint256.NewInt(1)
	tx.FeePayerSig = txtypes.PendingFeePayerSig()

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	_, _, err = cs.Countersign(raw)
	require.ErrorIs(t, err, txtypes.ErrValidation)
}

func TestCountersignRejectsUndecodableInput(t *testing.T) {
	_, payerKey := testKeys(t)
	cs := feepayer.NewCountersigner(payerKey, feepayer.Policy{})

	_, _, err := cs.Countersign([]byte{0x02, 0x01})
	require.ErrorIs(t, err, txtypes.ErrTxTypeMismatch)

	_, _, err = cs.Countersign(nil)
	require.ErrorIs(t, err, txtypes.ErrMalformedEnvelope)
}

func TestCountersignEnforcesPolicy(t *testing.T) {
	senderKey, payerKey := testKeys(t)
	cs := feepayer.NewCountersigner(payerKey, feepayer.Policy{
		AllowedFeeTokens: []common.Address{otherToken},
	})

	out, signed, err := cs.Countersign(pendingRaw(t, senderKey, cs.Address()))
	require.ErrorIs(t, err, feepayer.ErrNotSponsorable)
	assert.Nil(t, out)
	assert.Nil(t, signed)
}
