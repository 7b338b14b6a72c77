package auth

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestGenerateTokenLength(t *testing.T) {
	token, err := GenerateToken(TokenBytes)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	want := base64.RawURLEncoding.EncodedLen(TokenBytes)
	if len(token) != want {
		t.Errorf("token length = %d, want %d", len(token), want)
	}
}

func TestGenerateTokenURLSafe(t *testing.T) {
	for i := 0; i < 100; i++ {
		token, err := GenerateToken(TokenBytes)
		if err != nil {
			t.Fatalf("GenerateToken failed: %v", err)
		}
		if strings.ContainsAny(token, "+/=") {
			t.Fatalf("token %q contains characters outside the base64url alphabet", token)
		}
	}
}

func TestGenerateTokenUniqueness(t *testing.T) {
	const n = 10_000

	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		token, err := GenerateToken(TokenBytes)
		if err != nil {
			t.Fatalf("GenerateToken failed: %v", err)
		}
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token after %d generations", i)
		}
		seen[token] = struct{}{}
	}
}

func TestGenerateTokenRejectsShortLength(t *testing.T) {
	if _, err := GenerateToken(minTokenBytes - 1); err == nil {
		t.Error("expected an error for a token length below the minimum")
	}
	if _, err := GenerateToken(0); err == nil {
		t.Error("expected an error for a zero-length token")
	}
}
