package pak

import (
	"crypto/aes"
	"encoding/hex"
	"strings"

	"github.com/ossrs/go-oryx-lib/errors"
)

// KeySize is the AES-256 key length used by pak encryption.
const KeySize = 32

// ParseKey decodes a key in the "0x" prefixed hex form games publish.
// An empty string means no key.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrapf(err, "decode aes key")
	}
	if len(key) != KeySize {
		return nil, errors.Errorf("aes key must be %v bytes, got %v", KeySize, len(key))
	}
	return key, nil
}

func align16(n int64) int64 {
	return (n + aes.BlockSize - 1) &^ (aes.BlockSize - 1)
}

// decrypt decrypts data in place with AES-256 in ECB mode. Trailing bytes
// that do not fill a block are left untouched.
func decrypt(key, data []byte) error {
	if len(key) != KeySize {
		return ErrKeyRequired
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return errors.Wrapf(err, "aes cipher")
	}
	for i := 0; i+aes.BlockSize <= len(data); i += aes.BlockSize {
		block.Decrypt(data[i:i+aes.BlockSize], data[i:i+aes.BlockSize])
	}
	return nil
}
