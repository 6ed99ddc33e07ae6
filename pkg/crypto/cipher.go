package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
)

// ErrEmptySecret is returned when a SecretBox is built without key material.
var ErrEmptySecret = errors.New("crypto: empty secret")

// SecretBox seals short values (TOTP secrets, provider tokens) with AES-GCM.
// The key is the SHA-256 digest of the configured secret.
type SecretBox struct {
	aead cipher.AEAD
}

// NewSecretBox derives the AES-256 key and prepares the GCM instance.
func NewSecretBox(secret string) (*SecretBox, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	sum := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &SecretBox{aead: gcm}, nil
}

// Seal encrypts plaintext. The nonce is prepended to the ciphertext.
func (b *SecretBox) Seal(plaintext string) ([]byte, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("crypto: nonce: %w", err)
	}
	return b.aead.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// Open reverses Seal.
func (b *SecretBox) Open(payload []byte) (string, error) {
	nonceSize := b.aead.NonceSize()
	if len(payload) < nonceSize {
		return "", io.ErrUnexpectedEOF
	}
	plain, err := b.aead.Open(nil, payload[:nonceSize], payload[nonceSize:], nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// SealOptional seals non-empty values and maps empty ones to nil.
func (b *SecretBox) SealOptional(plaintext string) ([]byte, error) {
	if plaintext == "" {
		return nil, nil
	}
	return b.Seal(plaintext)
}
