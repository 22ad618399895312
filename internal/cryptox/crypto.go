// Package cryptox implements the encryption primitives of the data core:
// field-level AES-GCM encryption for sensitive columns and password-based
// archive encryption for cloud backups. Keys are derived with argon2id.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/mkazakovs/entrypack/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	nonceSize = 12
	saltSize  = 16
	keySize   = 32
)

// DeriveMasterKey derives a 32-byte key from a password and salt using
// argon2id. The same parameters must be used for encryption and decryption.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, keySize)
}

// MakeVerifier returns a hash of the master key that can be stored to check
// a password without keeping the key itself.
func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

// RandBytes returns n cryptographically random bytes.
func RandBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand: %v", err))
	}
	return b
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// seal encrypts plaintext with a fresh nonce and returns nonce || ciphertext.
func seal(key, plaintext []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := RandBytes(aesgcm.NonceSize())
	return append(nonce, aesgcm.Seal(nil, nonce, plaintext, nil)...), nil
}

// open decrypts a nonce || ciphertext blob produced by seal.
func open(key, blob []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(blob) < aesgcm.NonceSize() {
		return nil, common.ErrDecryption
	}
	plaintext, err := aesgcm.Open(nil, blob[:aesgcm.NonceSize()], blob[aesgcm.NonceSize():], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	return plaintext, nil
}

// EncryptFileWithPassword encrypts the file at src into dst. The output layout
// is salt || nonce || ciphertext, so dst is self-contained: the password alone
// is enough to decrypt it later.
func EncryptFileWithPassword(src, dst string, password []byte) error {
	plaintext, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}

	salt := RandBytes(saltSize)
	key := DeriveMasterKey(password, salt)

	blob, err := seal(key, plaintext)
	if err != nil {
		return err
	}

	if err := os.WriteFile(dst, append(salt, blob...), 0o660); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}

// DecryptFileWithPassword reverses EncryptFileWithPassword. A wrong password
// surfaces as common.ErrDecryption.
func DecryptFileWithPassword(src, dst string, password []byte) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	if len(data) < saltSize+nonceSize {
		return fmt.Errorf("%w: archive too short", common.ErrDecryption)
	}

	key := DeriveMasterKey(password, data[:saltSize])
	plaintext, err := open(key, data[saltSize:])
	if err != nil {
		return err
	}

	if err := os.WriteFile(dst, plaintext, 0o660); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}

// Base64 helpers for storing binary ciphertext in TEXT columns.
func encode(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

func decode(s string) ([]byte, error) { return base64.StdEncoding.DecodeString(s) }
