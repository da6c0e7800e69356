package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "hunter2" {
		t.Fatal("hash must not equal the password")
	}
	if !CheckPassword(hash, "hunter2") {
		t.Fatal("correct password should match")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("wrong password must not match")
	}
}

func TestIssueAndValidate(t *testing.T) {
	m := NewTokenManager("test-secret", 15*time.Minute)

	pair, err := m.IssueTokens("ada")
	if err != nil {
		t.Fatal(err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("both tokens should be issued")
	}

	username, err := m.ValidateAccess(pair.AccessToken)
	if err != nil || username != "ada" {
		t.Fatalf("ValidateAccess=%q, %v", username, err)
	}
	username, err = m.ValidateRefresh(pair.RefreshToken)
	if err != nil || username != "ada" {
		t.Fatalf("ValidateRefresh=%q, %v", username, err)
	}
}

func TestTokenTypeEnforcement(t *testing.T) {
	m := NewTokenManager("test-secret", 15*time.Minute)
	pair, err := m.IssueTokens("ada")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.ValidateAccess(pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("a refresh token must not pass as access, got %v", err)
	}
	if _, err := m.ValidateRefresh(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("an access token must not pass as refresh, got %v", err)
	}
}

func TestWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", 15*time.Minute)
	verifier := NewTokenManager("secret-b", 15*time.Minute)

	pair, err := issuer.IssueTokens("ada")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := verifier.ValidateAccess(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign signature should be rejected, got %v", err)
	}
}

func TestExpiredToken(t *testing.T) {
	m := NewTokenManager("test-secret", -time.Minute)
	pair, err := m.IssueTokens("ada")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.ValidateAccess(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token should be rejected, got %v", err)
	}
}

func TestGarbageToken(t *testing.T) {
	m := NewTokenManager("test-secret", 15*time.Minute)
	if _, err := m.ValidateAccess("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage should be rejected, got %v", err)
	}
}

func TestMemoryBlacklist(t *testing.T) {
	b := NewMemoryBlacklist()
	ctx := context.Background()

	if revoked, _ := b.Revoked(ctx, "tok"); revoked {
		t.Fatal("unknown token should not be revoked")
	}
	if err := b.Revoke(ctx, "tok", time.Minute); err != nil {
		t.Fatal(err)
	}
	if revoked, _ := b.Revoked(ctx, "tok"); !revoked {
		t.Fatal("revoked token should report revoked")
	}

	if err := b.Revoke(ctx, "stale", -time.Minute); err != nil {
		t.Fatal(err)
	}
	if revoked, _ := b.Revoked(ctx, "stale"); revoked {
		t.Fatal("expired entry should fall out of the blacklist")
	}
}
