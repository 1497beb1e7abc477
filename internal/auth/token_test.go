package auth

import (
	"errors"
	"testing"
	"time"
)

func TestIssueVerify(t *testing.T) {
	s, err := NewSigner("secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	tok, err := s.Issue("u1", "client")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := s.Verify(tok)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.UserID != "u1" || claims.Role != "client" || claims.Subject != "u1" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestVerifyRejects(t *testing.T) {
	s, _ := NewSigner("secret", time.Hour)
	other, _ := NewSigner("other", time.Hour)
	foreign, _ := other.Issue("u1", "")

	expired, _ := NewSigner("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _ := expired.Issue("u1", "")

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"wrong secret", foreign},
		{"expired", old},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestNoExpiry(t *testing.T) {
	s, _ := NewSigner("secret", 0)
	tok, _ := s.Issue("u1", "")
	s.now = func() time.Time { return time.Now().Add(10 * 365 * 24 * time.Hour) }
	if _, err := s.Verify(tok); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestNewSignerRequiresSecret(t *testing.T) {
	if _, err := NewSigner("", time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
}
