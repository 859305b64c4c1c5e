package security

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hashed, errHash := HashPassword("hunter22")
	if errHash != nil {
		t.Fatalf("HashPassword: %v", errHash)
	}
	if hashed == "hunter22" {
		t.Fatalf("hash must not equal plaintext")
	}
	if !VerifyPassword(hashed, "hunter22") {
		t.Fatalf("expected matching password to verify")
	}
	if VerifyPassword(hashed, "wrong") {
		t.Fatalf("expected mismatched password to fail")
	}
}
