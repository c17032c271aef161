package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/subtle"
	"encoding/hex"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"
)

// ErrInvalidPassphrase covers both a wrong passphrase and a corrupted
// document; the MAC cannot tell them apart.
var ErrInvalidPassphrase = errors.New("invalid passphrase or corrupted keystore")

// Decrypt opens the keystore document with passphrase and returns the
// private key.
func Decrypt(doc *EncryptedKey, passphrase string) (*ecdsa.PrivateKey, error) {
	if doc.Crypto.Cipher != "aes-128-ctr" {
		return nil, errors.Errorf("unsupported cipher %q", doc.Crypto.Cipher)
	}
	if doc.Crypto.KDF != "scrypt" {
		return nil, errors.Errorf("unsupported kdf %q", doc.Crypto.KDF)
	}

	salt, err := hex.DecodeString(doc.Crypto.KDFParams.Salt)
	if err != nil {
		return nil, errors.Wrap(err, "decoding salt")
	}

	iv, err := hex.DecodeString(doc.Crypto.CipherParams.IV)
	if err != nil {
		return nil, errors.Wrap(err, "decoding IV")
	}

	ciphertext, err := hex.DecodeString(doc.Crypto.Ciphertext)
	if err != nil {
		return nil, errors.Wrap(err, "decoding ciphertext")
	}

	expectedMAC, err := hex.DecodeString(doc.Crypto.MAC)
	if err != nil {
		return nil, errors.Wrap(err, "decoding MAC")
	}

	derivedKey, err := scrypt.Key(
		[]byte(passphrase),
		salt,
		doc.Crypto.KDFParams.N,
		doc.Crypto.KDFParams.R,
		doc.Crypto.KDFParams.P,
		doc.Crypto.KDFParams.DKLen,
	)
	if err != nil {
		return nil, errors.Wrap(err, "deriving key")
	}

	mac := crypto.Keccak256(derivedKey[16:32], ciphertext)
	if subtle.ConstantTimeCompare(mac, expectedMAC) != 1 {
		return nil, ErrInvalidPassphrase
	}

	plaintext, err := decryptAES128CTR(derivedKey[:16], iv, ciphertext)
	if err != nil {
		return nil, errors.Wrap(err, "decrypting key")
	}

	key, err := crypto.ToECDSA(plaintext)
	if err != nil {
		return nil, errors.Wrap(err, "parsing decrypted key")
	}

	if doc.Address != "" {
		derived := hex.EncodeToString(crypto.PubkeyToAddress(key.PublicKey).Bytes())
		if derived != doc.Address {
			return nil, errors.Errorf("keystore address mismatch: document %s, key %s", doc.Address, derived)
		}
	}

	return key, nil
}

func decryptAES128CTR(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "creating cipher")
	}

	plaintext := make([]byte, len(ciphertext))
	stream := cipher.NewCTR(block, iv)
	stream.XORKeyStream(plaintext, ciphertext)

	return plaintext, nil
}
