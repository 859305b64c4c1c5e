// Package kms wraps the envelope-encryption key service behind a small
// interface so the gateway can seal credentials at rest and unwrap them
// for the duration of a single outbound call. Implementations must bind
// every ciphertext to the fixed authenticated-context tag; a blob sealed
// under a different tag must fail to open.
package kms

import (
	"context"
	"errors"
)

// ContextTag is the authenticated-context value bound at seal time.
// It prevents ciphertexts produced by other subsystems sharing the same
// key from being unwrapped here.
const ContextTag = "mcpflow"

// ErrUnwrapFailed indicates the ciphertext could not be opened
// (corruption, truncation, or a mismatched context tag).
var ErrUnwrapFailed = errors.New("kms: unwrap failed")

// ErrPermissionDenied indicates the key service refused the operation.
// Surfaced as a category only; key-service internals never reach callers.
var ErrPermissionDenied = errors.New("kms: permission denied")

// Service seals and unwraps credentials. Seal returns a base64
// ciphertext suitable for storage; Open returns the plaintext, which
// callers must keep transient and never log or persist.
type Service interface {
	Seal(ctx context.Context, plaintext []byte) (string, error)
	Open(ctx context.Context, ciphertext string) ([]byte, error)
}
