package kms

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// AEADService implements Service with a local XChaCha20-Poly1305 key.
// The context tag rides as additional authenticated data, matching the
// semantics of a managed KMS with AAD binding.
type AEADService struct {
	aead cipher.AEAD
}

// NewAEADService constructs an AEADService from a base64-encoded
// 32-byte key.
func NewAEADService(encodedKey string) (*AEADService, error) {
	key, errDecode := base64.StdEncoding.DecodeString(encodedKey)
	if errDecode != nil {
		return nil, fmt.Errorf("kms: decode key: %w", errDecode)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("kms: key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	aead, errNew := chacha20poly1305.NewX(key)
	if errNew != nil {
		return nil, fmt.Errorf("kms: init aead: %w", errNew)
	}
	return &AEADService{aead: aead}, nil
}

// Seal encrypts plaintext under the fixed context tag and returns
// base64(nonce || ciphertext).
func (s *AEADService) Seal(_ context.Context, plaintext []byte) (string, error) {
	if s == nil || s.aead == nil {
		return "", fmt.Errorf("kms: not initialized")
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, errRead := io.ReadFull(rand.Reader, nonce); errRead != nil {
		return "", fmt.Errorf("kms: generate nonce: %w", errRead)
	}
	sealed := s.aead.Seal(nonce, nonce, plaintext, []byte(ContextTag))
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a base64 ciphertext produced by Seal. Any corruption or
// context-tag mismatch yields ErrUnwrapFailed; the plaintext is never
// partially returned.
func (s *AEADService) Open(_ context.Context, ciphertext string) ([]byte, error) {
	if s == nil || s.aead == nil {
		return nil, fmt.Errorf("kms: not initialized")
	}
	raw, errDecode := base64.StdEncoding.DecodeString(ciphertext)
	if errDecode != nil {
		return nil, fmt.Errorf("%w: invalid encoding", ErrUnwrapFailed)
	}
	nonceSize := s.aead.NonceSize()
	if len(raw) < nonceSize {
		return nil, fmt.Errorf("%w: truncated ciphertext", ErrUnwrapFailed)
	}
	plaintext, errOpen := s.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], []byte(ContextTag))
	if errOpen != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnwrapFailed, errOpen)
	}
	return plaintext, nil
}
