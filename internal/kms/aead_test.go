package kms

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"testing"

	"golang.org/x/crypto/chacha20poly1305"
)

func testKey(t *testing.T) string {
	t.Helper()
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return base64.StdEncoding.EncodeToString(key)
}

func TestNewAEADService_RejectsBadKeys(t *testing.T) {
	if _, err := NewAEADService("not-base64!!!"); err == nil {
		t.Fatalf("expected error for invalid base64 key")
	}
	short := base64.StdEncoding.EncodeToString([]byte("too short"))
	if _, err := NewAEADService(short); err == nil {
		t.Fatalf("expected error for short key")
	}
}

func TestSealOpen_RoundTrip(t *testing.T) {
	svc, err := NewAEADService(testKey(t))
	if err != nil {
		t.Fatalf("NewAEADService: %v", err)
	}

	plaintext := []byte("sk-live-0123456789")
	sealed, errSeal := svc.Seal(context.Background(), plaintext)
	if errSeal != nil {
		t.Fatalf("Seal: %v", errSeal)
	}
	if sealed == string(plaintext) {
		t.Fatalf("sealed output must not equal plaintext")
	}

	opened, errOpen := svc.Open(context.Background(), sealed)
	if errOpen != nil {
		t.Fatalf("Open: %v", errOpen)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Fatalf("round trip mismatch: got %q want %q", opened, plaintext)
	}
}

func TestOpen_RejectsCorruptCiphertext(t *testing.T) {
	svc, err := NewAEADService(testKey(t))
	if err != nil {
		t.Fatalf("NewAEADService: %v", err)
	}

	sealed, errSeal := svc.Seal(context.Background(), []byte("secret"))
	if errSeal != nil {
		t.Fatalf("Seal: %v", errSeal)
	}

	raw, _ := base64.StdEncoding.DecodeString(sealed)
	raw[len(raw)-1] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)

	if _, errOpen := svc.Open(context.Background(), tampered); !errors.Is(errOpen, ErrUnwrapFailed) {
		t.Fatalf("expected ErrUnwrapFailed, got %v", errOpen)
	}
}

func TestOpen_RejectsTruncatedAndMalformed(t *testing.T) {
	svc, err := NewAEADService(testKey(t))
	if err != nil {
		t.Fatalf("NewAEADService: %v", err)
	}

	if _, errOpen := svc.Open(context.Background(), "%%%not base64"); !errors.Is(errOpen, ErrUnwrapFailed) {
		t.Fatalf("expected ErrUnwrapFailed for invalid encoding, got %v", errOpen)
	}
	tiny := base64.StdEncoding.EncodeToString([]byte("short"))
	if _, errOpen := svc.Open(context.Background(), tiny); !errors.Is(errOpen, ErrUnwrapFailed) {
		t.Fatalf("expected ErrUnwrapFailed for truncated blob, got %v", errOpen)
	}
}

func TestOpen_RejectsForeignContextTag(t *testing.T) {
	rawKey := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(rand.Reader, rawKey); err != nil {
		t.Fatalf("generate key: %v", err)
	}
	encoded := base64.StdEncoding.EncodeToString(rawKey)

	svc, err := NewAEADService(encoded)
	if err != nil {
		t.Fatalf("NewAEADService: %v", err)
	}

	// Seal under the same key but a different context tag, the way an
	// unrelated subsystem sharing the key would.
	aead, errNew := chacha20poly1305.NewX(rawKey)
	if errNew != nil {
		t.Fatalf("NewX: %v", errNew)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, errRead := io.ReadFull(rand.Reader, nonce); errRead != nil {
		t.Fatalf("generate nonce: %v", errRead)
	}
	foreign := aead.Seal(nonce, nonce, []byte("secret"), []byte("other-system"))
	blob := base64.StdEncoding.EncodeToString(foreign)

	if _, errOpen := svc.Open(context.Background(), blob); !errors.Is(errOpen, ErrUnwrapFailed) {
		t.Fatalf("expected ErrUnwrapFailed for foreign context tag, got %v", errOpen)
	}
}
