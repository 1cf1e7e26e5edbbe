// Package auth guards the mutating control API routes with an admin PIN.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MinPINLength is the shortest PIN HashPIN accepts.
const MinPINLength = 4

var (
	// ErrInvalidPIN is returned when a PIN does not match the stored hash.
	ErrInvalidPIN = errors.New("invalid admin pin")
	// ErrWeakPIN is returned by HashPIN for PINs that are too short.
	ErrWeakPIN = fmt.Errorf("admin pin must be at least %d characters", MinPINLength)
)

// HashPIN hashes a PIN with bcrypt. Out-of-range costs fall back to the
// bcrypt default.
func HashPIN(pin string, cost int) (string, error) {
	pin = strings.TrimSpace(pin)
	if len(pin) < MinPINLength {
		return "", ErrWeakPIN
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash pin: %w", err)
	}
	return string(hash), nil
}

// VerifyPIN compares pin with hash. An empty hash means no PIN is
// configured and every request passes.
func VerifyPIN(pin, hash string) error {
	if hash == "" {
		return nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(strings.TrimSpace(pin)))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidPIN
	}
	if err != nil {
		return fmt.Errorf("failed to verify pin: %w", err)
	}
	return nil
}
