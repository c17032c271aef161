package keystore

import (
	"crypto/ecdsa"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Save writes the keystore document to path, readable only by the owner.
func Save(path string, doc *EncryptedKey) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding keystore")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(err, "creating keystore directory")
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(err, "writing keystore")
	}

	return nil
}

// Load reads a keystore document from path.
func Load(path string) (*EncryptedKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading keystore")
	}

	doc := new(EncryptedKey)
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, errors.Wrap(err, "parsing keystore")
	}

	return doc, nil
}

// SaveKey encrypts key under passphrase and writes it to path.
func SaveKey(path string, key *ecdsa.PrivateKey, passphrase string, params ScryptParams) error {
	doc, err := Encrypt(key, passphrase, params)
	if err != nil {
		return err
	}
	return Save(path, doc)
}

// LoadKey reads and decrypts the key stored at path.
func LoadKey(path, passphrase string) (*ecdsa.PrivateKey, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Decrypt(doc, passphrase)
}
