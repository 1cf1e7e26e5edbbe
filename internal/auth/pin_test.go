package auth

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPIN(t *testing.T) {
	hash, err := HashPIN("4821", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash pin: %v", err)
	}

	if err := VerifyPIN("4821", hash); err != nil {
		t.Fatalf("expected pin to verify, got %v", err)
	}
	if err := VerifyPIN(" 4821\n", hash); err != nil {
		t.Fatalf("expected surrounding whitespace to be ignored, got %v", err)
	}
	if err := VerifyPIN("0000", hash); !errors.Is(err, ErrInvalidPIN) {
		t.Fatalf("expected ErrInvalidPIN, got %v", err)
	}
}

func TestHashPINRejectsShortPIN(t *testing.T) {
	if _, err := HashPIN("12", bcrypt.MinCost); !errors.Is(err, ErrWeakPIN) {
		t.Fatalf("expected ErrWeakPIN, got %v", err)
	}
}

func TestVerifyPINWithoutHash(t *testing.T) {
	if err := VerifyPIN("", ""); err != nil {
		t.Fatalf("expected open access without a hash, got %v", err)
	}
}

func TestVerifyPINMalformedHash(t *testing.T) {
	err := VerifyPIN("4821", "not-a-hash")
	if err == nil || errors.Is(err, ErrInvalidPIN) {
		t.Fatalf("expected a verification error, got %v", err)
	}
}
