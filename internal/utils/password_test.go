package utils

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	PasswordCost = bcrypt.MinCost
	t.Cleanup(func() { PasswordCost = bcrypt.DefaultCost })

	h1, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h2, _ := HashPassword("secret123")
	if h1 == h2 {
		t.Fatalf("expected salted hashes to differ")
	}
	if strings.Contains(h1, "secret123") {
		t.Fatalf("hash leaks plaintext")
	}
	if err := CheckPassword(h1, "secret123"); err != nil {
		t.Fatalf("check: %v", err)
	}
	if err := CheckPassword(h1, "wrong"); err == nil {
		t.Fatalf("expected mismatch")
	}
}

func TestHashPasswordTooShort(t *testing.T) {
	if _, err := HashPassword("abc"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}
