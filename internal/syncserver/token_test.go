package syncserver

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	m, err := NewTokenManager("s3cret", "novatasks")
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}

	tok, err := m.Issue("alice", 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := m.Validate(tok)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UserID() != "alice" || claims.Issuer != "novatasks" || claims.ExpiresAt != nil {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokenRejections(t *testing.T) {
	m, _ := NewTokenManager("s3cret", "novatasks")
	other, _ := NewTokenManager("different", "novatasks")
	foreign, _ := NewTokenManager("s3cret", "someone-else")

	signedElsewhere, _ := other.Issue("alice", 0)
	wrongIssuer, _ := foreign.Issue("alice", 0)

	for name, tok := range map[string]string{
		"garbage":      "not-a-jwt",
		"wrong secret": signedElsewhere,
		"wrong issuer": wrongIssuer,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := m.Validate(tok); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestTokenExpiry(t *testing.T) {
	m, _ := NewTokenManager("s3cret", "novatasks")
	issued := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	tok, err := m.Issue("bob", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := m.Validate(tok); err != nil {
		t.Fatalf("Validate before expiry: %v", err)
	}

	m.now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := m.Validate(tok); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("err = %v, want ErrExpiredToken", err)
	}
}

func TestTokenManagerRequiresSecret(t *testing.T) {
	if _, err := NewTokenManager("", "x"); err == nil {
		t.Error("empty secret accepted")
	}
	m, _ := NewTokenManager("s", "x")
	if _, err := m.Issue("", 0); err == nil {
		t.Error("empty user accepted")
	}
}
