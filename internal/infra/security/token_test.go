package security

import (
	"encoding/hex"
	"testing"
)

func TestGenerateNumericCode(t *testing.T) {
	code, err := GenerateNumericCode(6)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6 characters, got %d", len(code))
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("non-digit %q in code %q", r, code)
		}
	}

	if _, err := GenerateNumericCode(0); err == nil {
		t.Fatal("expected an error for zero length")
	}
}

func TestGenerateOpaqueToken(t *testing.T) {
	token, err := GenerateOpaqueToken(32)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(token) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(token))
	}
	if _, err := hex.DecodeString(token); err != nil {
		t.Fatalf("token must be valid hex: %v", err)
	}

	other, err := GenerateOpaqueToken(32)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if token == other {
		t.Fatal("two tokens must differ")
	}

	if _, err := GenerateOpaqueToken(-1); err == nil {
		t.Fatal("expected an error for negative length")
	}
}

func TestHashTokenIsDeterministic(t *testing.T) {
	first := HashToken("refresh-token-value")
	second := HashToken("refresh-token-value")
	if first != second {
		t.Fatal("hashing must be deterministic")
	}
	if first == HashToken("another-value") {
		t.Fatal("different inputs must hash differently")
	}
	if len(first) != 64 {
		t.Fatalf("expected a hex SHA-256 digest, got %d characters", len(first))
	}
}
