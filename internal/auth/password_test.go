package auth

import "testing"

func TestHashAndVerifyRoundTrip(t *testing.T) {
	digest, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}

	if !VerifyPassword("correct horse battery staple", digest) {
		t.Fatalf("expected password to verify against its own digest")
	}
	if VerifyPassword("wrong password", digest) {
		t.Fatalf("expected mismatched password to fail verification")
	}
}

func TestHashIsSaltedPerCall(t *testing.T) {
	first, err := HashPassword("same input")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	second, err := HashPassword("same input")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}

	if first == second {
		t.Fatalf("two hashes of the same password must differ")
	}
	if !VerifyPassword("same input", first) || !VerifyPassword("same input", second) {
		t.Fatalf("both digests must verify the original password")
	}
}

func TestVerifyEmptyInputs(t *testing.T) {
	digest, err := HashPassword("something")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}

	if VerifyPassword("", digest) {
		t.Fatalf("empty password must not verify")
	}
	if VerifyPassword("something", "") {
		t.Fatalf("empty digest must not verify")
	}
}

func TestHashRejectsEmptyPassword(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Fatalf("expected error for empty password")
	}
}
