package pkg

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

var (
	ErrMissingSalt      = errors.New("encryption salt not configured")
	ErrCiphertextFormat = errors.New("ciphertext malformed")
)

const (
	keyIterations = 100000
	keyLen        = 32
)

// FieldCipher AES-256-GCM，密钥由口令和 ENCRYPTION_SALT 派生
type FieldCipher struct {
	aead cipher.AEAD
}

func NewFieldCipher(passphrase, salt string) (*FieldCipher, error) {
	if salt == "" {
		return nil, ErrMissingSalt
	}
	key := pbkdf2.Key([]byte(passphrase), []byte(salt), keyIterations, keyLen, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &FieldCipher{aead: aead}, nil
}

// Encrypt 输出 base64(nonce || ciphertext)
func (c *FieldCipher) Encrypt(plain string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *FieldCipher) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrCiphertextFormat
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns {
		return "", ErrCiphertextFormat
	}
	plain, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
