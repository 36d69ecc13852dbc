package services

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// TokenCipher seals ledger OAuth tokens before they hit the database.
// With no key configured (development) it passes values through unchanged.
type TokenCipher struct {
	aead cipher.AEAD
}

// NewTokenCipher builds a cipher from a hex-encoded 32-byte key.
func NewTokenCipher(hexKey string) (*TokenCipher, error) {
	if hexKey == "" {
		return &TokenCipher{}, nil
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("token cipher key is not valid hex: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("token cipher key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &TokenCipher{aead: aead}, nil
}

// Seal encrypts a token for storage. Output is base64(nonce || ciphertext).
func (c *TokenCipher) Seal(plaintext string) (string, error) {
	if c.aead == nil {
		return plaintext, nil
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a stored token.
func (c *TokenCipher) Open(sealed string) (string, error) {
	if c.aead == nil {
		return sealed, nil
	}
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("stored token is not valid base64: %w", err)
	}
	if len(raw) < c.aead.NonceSize() {
		return "", errors.New("stored token is too short")
	}
	nonce, ciphertext := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("stored token failed authentication: %w", err)
	}
	return string(plaintext), nil
}
