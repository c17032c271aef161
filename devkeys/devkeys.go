// Package devkeys derives the deterministic, publicly known accounts of the
// Chapay devnet. Never fund these keys on a real network.
package devkeys

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip32"
)

// Seed is the well known devnet seed. The devnet genesis funds the first ten
// derived accounts.
var Seed = []byte("chapay devnet deterministic seed v1")

const (
	// SenderIndex is the default transaction sender account.
	SenderIndex = 0
	// FeePayerIndex is the sponsor account used by the devnet relay daemon.
	FeePayerIndex = 9

	hardened = 0x80000000
)

// Derive returns the devnet key at m/44'/60'/0'/0/{index}.
func Derive(index uint32) (*ecdsa.PrivateKey, common.Address, error) {
	master, err := bip32.NewMasterKey(Seed)
	if err != nil {
		return nil, common.Address{}, errors.Wrap(err, "creating master key")
	}

	key := master
	for _, step := range []uint32{44 + hardened, 60 + hardened, hardened, 0, index} {
		key, err = key.NewChildKey(step)
		if err != nil {
			return nil, common.Address{}, errors.Wrapf(err, "deriving child key at index %d", step)
		}
	}

	priv, err := crypto.ToECDSA(key.Key)
	if err != nil {
		return nil, common.Address{}, errors.Wrap(err, "converting derived key")
	}

	return priv, crypto.PubkeyToAddress(priv.PublicKey), nil
}

// Sender returns the default devnet sender account.
func Sender() (*ecdsa.PrivateKey, common.Address, error) {
	return Derive(SenderIndex)
}

// FeePayer returns the devnet sponsor account.
func FeePayer() (*ecdsa.PrivateKey, common.Address, error) {
	return Derive(FeePayerIndex)
}

// Addresses lists the first n devnet addresses.
func Addresses(n uint32) ([]common.Address, error) {
	out := make([]common.Address, 0, n)
	for i := uint32(0); i < n; i++ {
		_, addr, err := Derive(i)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}
