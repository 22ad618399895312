package cryptox

import (
	"crypto/sha256"
	"fmt"
	"sync"
)

// FieldCipher encrypts and decrypts individual sensitive columns before they
// reach the database. Each field type (e.g. "passport_number", "home_address")
// gets its own subkey derived from the master key, so leaking one derived key
// does not expose the others.
type FieldCipher struct {
	master []byte

	mu   sync.Mutex
	keys map[string][]byte
}

// NewFieldCipher returns a FieldCipher bound to the given master key.
func NewFieldCipher(master []byte) *FieldCipher {
	return &FieldCipher{master: master, keys: make(map[string][]byte)}
}

// keyFor derives (and caches) the subkey for a field type.
func (c *FieldCipher) keyFor(fieldType string) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if k, ok := c.keys[fieldType]; ok {
		return k
	}
	h := sha256.New()
	h.Write(c.master)
	h.Write([]byte(fieldType))
	k := h.Sum(nil)
	c.keys[fieldType] = k
	return k
}

// EncryptField encrypts a single value under the field type's subkey and
// returns a base64 string suitable for a TEXT column. Empty values pass
// through unchanged so partially filled records stay representable.
func (c *FieldCipher) EncryptField(fieldType, plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	blob, err := seal(c.keyFor(fieldType), []byte(plaintext))
	if err != nil {
		return "", fmt.Errorf("encrypt field %s: %w", fieldType, err)
	}
	return encode(blob), nil
}

// DecryptField reverses EncryptField.
func (c *FieldCipher) DecryptField(fieldType, encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}
	blob, err := decode(encoded)
	if err != nil {
		return "", fmt.Errorf("decode field %s: %w", fieldType, err)
	}
	plaintext, err := open(c.keyFor(fieldType), blob)
	if err != nil {
		return "", fmt.Errorf("decrypt field %s: %w", fieldType, err)
	}
	return string(plaintext), nil
}

// EncryptFieldMap encrypts every value in fields, keyed by field type.
// Used to pre-compute all ciphertext before entering a transaction.
func (c *FieldCipher) EncryptFieldMap(fields map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	for ft, v := range fields {
		enc, err := c.EncryptField(ft, v)
		if err != nil {
			return nil, err
		}
		out[ft] = enc
	}
	return out, nil
}

// DecryptFieldMap reverses EncryptFieldMap.
func (c *FieldCipher) DecryptFieldMap(fields map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	for ft, v := range fields {
		dec, err := c.DecryptField(ft, v)
		if err != nil {
			return nil, err
		}
		out[ft] = dec
	}
	return out, nil
}
