package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"
)

const keystoreVersion = 3

// Encrypt seals the private key under passphrase using scrypt and
// AES-128-CTR.
func Encrypt(key *ecdsa.PrivateKey, passphrase string, params ScryptParams) (*EncryptedKey, error) {
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "generating salt")
	}

	// AES-128-CTR requires a 16 byte IV.
	iv := make([]byte, 16)
	if _, err := rand.Read(iv); err != nil {
		return nil, errors.Wrap(err, "generating IV")
	}

	derivedKey, err := scrypt.Key([]byte(passphrase), salt, params.N, params.R, params.P, params.DKLen)
	if err != nil {
		return nil, errors.Wrap(err, "deriving key")
	}

	ciphertext, err := encryptAES128CTR(derivedKey[:16], iv, crypto.FromECDSA(key))
	if err != nil {
		return nil, errors.Wrap(err, "encrypting key")
	}

	mac := crypto.Keccak256(derivedKey[16:32], ciphertext)

	doc := &EncryptedKey{
		Version: keystoreVersion,
		ID:      uuid.New().String(),
		Address: hex.EncodeToString(crypto.PubkeyToAddress(key.PublicKey).Bytes()),
	}
	doc.Crypto.Ciphertext = hex.EncodeToString(ciphertext)
	doc.Crypto.CipherParams.IV = hex.EncodeToString(iv)
	doc.Crypto.Cipher = "aes-128-ctr"
	doc.Crypto.KDF = "scrypt"
	doc.Crypto.KDFParams.DKLen = params.DKLen
	doc.Crypto.KDFParams.Salt = hex.EncodeToString(salt)
	doc.Crypto.KDFParams.N = params.N
	doc.Crypto.KDFParams.R = params.R
	doc.Crypto.KDFParams.P = params.P
	doc.Crypto.MAC = hex.EncodeToString(mac)

	return doc, nil
}

func encryptAES128CTR(key, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "creating cipher")
	}

	ciphertext := make([]byte, len(plaintext))
	stream := cipher.NewCTR(block, iv)
	stream.XORKeyStream(ciphertext, plaintext)

	return ciphertext, nil
}
