package txtypes_test

import (
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/chapool/go-chapay/txtypes"
)

func testKeys(t *testing.T) (sender, payer *ecdsa.PrivateKey) {
	t.Helper()
	sender, err := crypto.HexToECDSA("b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291")
	require.NoError(t, err)
	payer, err = crypto.HexToECDSA("8a1f9a8f95be41cd7ccb6168179afb4504aefe388d1e14474d32c45c72ce7b7a")
	require.NoError(t, err)
	return sender, payer
}

func TestSignTxAndRecoverSender(t *testing.T) {
	senderKey, _ := testKeys(t)
	want := crypto.PubkeyToAddress(senderKey.PublicKey)

	signed, err := txtypes.SignTx(baseTx(), senderKey)
	require.NoError(t, err)
	require.True(t, signed.SenderSigned())
	assert.Equal(t, txtypes.StageSenderSigned, signed.Stage())

	got, err := txtypes.Sender(signed)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = txtypes.Sender(baseTx())
	require.ErrorIs(t, err, txtypes.ErrSignState)
}

func TestSenderDigestIndependentOfSponsorship(t *testing.T) {
	senderKey, payerKey := testKeys(t)
	payerAddr := crypto.PubkeyToAddress(payerKey.PublicKey)

	tx := baseTx()
	digest := txtypes.SenderSigHash(tx)

	withIntent := tx.RequestSponsorship(&payerAddr)
	assert.Equal(t, digest, txtypes.SenderSigHash(withIntent))

	signed, err := txtypes.SignTx(withIntent, senderKey)
	require.NoError(t, err)
	assert.Equal(t, digest, txtypes.SenderSigHash(signed))

	full, err := txtypes.SignTxAsFeePayer(signed, payerKey)
	require.NoError(t, err)
	assert.Equal(t, digest, txtypes.SenderSigHash(full))

	senderAddr := crypto.PubkeyToAddress(senderKey.PublicKey)
	for _, tx := range []*txtypes.FeeTokenTx{signed, full} {
		got, err := txtypes.Sender(tx)
		require.NoError(t, err)
		assert.Equal(t, senderAddr, got)
	}
}

func TestFeePayerDigestRequiresSenderSignature(t *testing.T) {
	_, payerKey := testKeys(t)

	_, err := txtypes.FeePayerSigHash(baseTx())
	require.ErrorIs(t, err, txtypes.ErrSignState)

	_, err = txtypes.SignTxAsFeePayer(baseTx(), payerKey)
	require.ErrorIs(t, err, txtypes.ErrSignState)
}

func TestFeePayerDigestBindsSenderSignature(t *testing.T) {
	senderKey, payerKey := testKeys(t)

	one, err := txtypes.SignTx(baseTx(), senderKey)
	require.NoError(t, err)
	// a different sender key over the same payload yields a different
	// signature and so a different fee payer digest
	two, err := txtypes.SignTx(baseTx(), payerKey)
	require.NoError(t, err)

	d1, err := txtypes.FeePayerSigHash(one)
	require.NoError(t, err)
	d2, err := txtypes.FeePayerSigHash(two)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d2)
}

func TestCountersignAndRecoverFeePayer(t *testing.T) {
	senderKey, payerKey := testKeys(t)
	payerAddr := crypto.PubkeyToAddress(payerKey.PublicKey)

	signed, err := txtypes.SignTx(baseTx().RequestSponsorship(&payerAddr), senderKey)
	require.NoError(t, err)
	require.Equal(t, txtypes.StagePendingSponsorship, signed.Stage())

	full, err := txtypes.SignTxAsFeePayer(signed, payerKey)
	require.NoError(t, err)
	require.Equal(t, txtypes.StageFullySigned, full.Stage())

	raw, err := full.MarshalBinary()
	require.NoError(t, err)
	var dec txtypes.FeeTokenTx
	require.NoError(t, dec.UnmarshalBinary(raw))

	got, err := txtypes.FeePayerAddress(&dec)
	require.NoError(t, err)
	assert.Equal(t, payerAddr, got)

	sender, err := txtypes.Sender(&dec)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(senderKey.PublicKey), sender)
}

func TestSignTxMaterializesPendingSlot(t *testing.T) {
	senderKey, payerKey := testKeys(t)
	payerAddr := crypto.PubkeyToAddress(payerKey.PublicKey)

	plain, err := txtypes.SignTx(baseTx(), senderKey)
	require.NoError(t, err)
	assert.Equal(t, txtypes.StageSenderSigned, plain.Stage())

	sponsored, err := txtypes.SignTx(baseTx().RequestSponsorship(&payerAddr), senderKey)
	require.NoError(t, err)
	assert.Equal(t, txtypes.StagePendingSponsorship, sponsored.Stage())

	// the intent address stays in memory but never reaches the wire
	raw, err := sponsored.MarshalBinary()
	require.NoError(t, err)
	var dec txtypes.FeeTokenTx
	require.NoError(t, dec.UnmarshalBinary(raw))
	assert.Nil(t, dec.FeePayer)
	assert.True(t, dec.FeePayerSig.Pending())
}

func TestResignVoidsCountersignature(t *testing.T) {
	senderKey, payerKey := testKeys(t)

	signed, err := txtypes.SignTx(baseTx(), senderKey)
	require.NoError(t, err)
	full, err := txtypes.SignTxAsFeePayer(signed.RequestSponsorship(nil), payerKey)
	require.NoError(t, err)
	require.Equal(t, txtypes.StageFullySigned, full.Stage())

	resigned, err := txtypes.SignTx(full, senderKey)
	require.NoError(t, err)
	assert.Equal(t, txtypes.StagePendingSponsorship, resigned.Stage())
	assert.Nil(t, resigned.FeePayerSig.R)
}

func TestRecoverRejectsInvalidSignatureValues(t *testing.T) {
	senderKey, _ := testKeys(t)
	signed, err := txtypes.SignTx(baseTx(), senderKey)
	require.NoError(t, err)

	t.Run("legacy v value", func(t *testing.T) {
		bad := signed.Copy()
		bad.V = uint256.NewInt(27)
		_, err := txtypes.Sender(bad)
		require.ErrorIs(t, err, txtypes.ErrValidation)
	})

	t.Run("zero r", func(t *testing.T) {
		bad := signed.Copy()
		bad.R = uint256.NewInt(0)
		_, err := txtypes.Sender(bad)
		require.ErrorIs(t, err, txtypes.ErrValidation)
	})
}

func TestHashTracksSignatureState(t *testing.T) {
	senderKey, payerKey := testKeys(t)

	signed, err := txtypes.SignTx(baseTx(), senderKey)
	require.NoError(t, err)
	full, err := txtypes.SignTxAsFeePayer(signed.RequestSponsorship(nil), payerKey)
	require.NoError(t, err)

	h1, err := signed.Hash()
	require.NoError(t, err)
	h2, err := full.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestDevnetLifecycles(t *testing.T) {
	senderKey, payerKey := testKeys(t)
	payerAddr := crypto.PubkeyToAddress(payerKey.PublicKey)

	t.Run("native fee transfer", func(t *testing.T) {
		tx, err := txtypes.NewFeeTokenTx(txtypes.TxArgs{
			ChainID:              1337,
			Nonce:                0,
			MaxPriorityFeePerGas: "1000000000",
			MaxFeePerGas:         "2000000000",
			Gas:                  21000,
			To:                   "0x095e7baea6a6c7c4c2dfeb977efac326af552d87",
			Value:                "1000000000000000000",
		})
		require.NoError(t, err)
		require.Equal(t, txtypes.StageSignable, tx.Stage())

		signed, err := txtypes.SignTx(tx, senderKey)
		require.NoError(t, err)

		raw, err := signed.MarshalBinary()
		require.NoError(t, err)
		var dec txtypes.FeeTokenTx
		require.NoError(t, dec.UnmarshalBinary(raw))
		assert.Nil(t, dec.FeeToken)
		assert.Equal(t, txtypes.StageSenderSigned, dec.Stage())
	})

	t.Run("fee token without sponsorship", func(t *testing.T) {
		tx, err := txtypes.NewFeeTokenTx(txtypes.TxArgs{
			ChainID:              1337,
			Nonce:                1,
			MaxPriorityFeePerGas: "1000000000",
			MaxFeePerGas:         "2000000000",
			Gas:                  65000,
			To:                   "0x095e7baea6a6c7c4c2dfeb977efac326af552d87",
			FeeToken:             "0x00000000000000000000000000000000000fee01",
		})
		require.NoError(t, err)

		signed, err := txtypes.SignTx(tx, senderKey)
		require.NoError(t, err)

		raw, err := signed.MarshalBinary()
		require.NoError(t, err)
		var dec txtypes.FeeTokenTx
		require.NoError(t, dec.UnmarshalBinary(raw))
		require.NotNil(t, dec.FeeToken)
		assert.Equal(t, *signed.FeeToken, *dec.FeeToken)
		assert.True(t, dec.FeePayerSig.Absent())
	})

	t.Run("sponsored fee token transfer", func(t *testing.T) {
		tx, err := txtypes.NewFeeTokenTx(txtypes.TxArgs{
			ChainID:              1337,
			Nonce:                2,
			MaxPriorityFeePerGas: "1000000000",
			MaxFeePerGas:         "2000000000",
			Gas:                  65000,
			To:                   "0x095e7baea6a6c7c4c2dfeb977efac326af552d87",
			FeeToken:             "0x00000000000000000000000000000000000fee01",
			FeePayer:             payerAddr.Hex(),
		})
		require.NoError(t, err)

		signed, err := txtypes.SignTx(tx, senderKey)
		require.NoError(t, err)
		require.Equal(t, txtypes.StagePendingSponsorship, signed.Stage())

		full, err := txtypes.SignTxAsFeePayer(signed, payerKey)
		require.NoError(t, err)
		require.Equal(t, txtypes.StageFullySigned, full.Stage())

		got, err := txtypes.FeePayerAddress(full)
		require.NoError(t, err)
		assert.Equal(t, payerAddr, got)

		sender, err := txtypes.Sender(full)
		require.NoError(t, err)
		assert.Equal(t, crypto.PubkeyToAddress(senderKey.PublicKey), sender)
	})
}
