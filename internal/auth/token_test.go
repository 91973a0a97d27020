package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	ti, err := NewTokenIssuer("test-secret", 15*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}

	token, expiresAt, err := ti.Generate("tribe2", RoleTribe2)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiration, got %v", expiresAt)
	}

	claims, err := ti.ParseAndValidate(token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if claims.Subject != "tribe2" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Role != RoleTribe2 {
		t.Fatalf("unexpected role: %s", claims.Role)
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	issuer, _ := NewTokenIssuer("secret-a", time.Minute)
	verifier, _ := NewTokenIssuer("secret-b", time.Minute)

	token, _, err := issuer.Generate("admin", RoleAdmin)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := verifier.ParseAndValidate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenRejectsExpired(t *testing.T) {
	ti, _ := NewTokenIssuer("test-secret", time.Minute)
	ti.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }

	token, _, err := ti.Generate("guest", RoleGuest)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	ti.now = time.Now
	if _, err := ti.ParseAndValidate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenRejectsGarbage(t *testing.T) {
	ti, _ := NewTokenIssuer("test-secret", time.Minute)
	for _, token := range []string{"", "  ", "not.a.token"} {
		if _, err := ti.ParseAndValidate(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("ParseAndValidate(%q) = %v, want ErrInvalidToken", token, err)
		}
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if _, ok := UserFromContext(ctx); ok {
		t.Fatalf("empty context must not carry a user")
	}

	ctx = ContextWithUser(ctx, User{Username: "tribe3", Role: RoleTribe3})
	user, ok := UserFromContext(ctx)
	if !ok || user.Username != "tribe3" {
		t.Fatalf("unexpected user: %+v ok=%v", user, ok)
	}
	role, ok := RoleFromContext(ctx)
	if !ok || role != RoleTribe3 {
		t.Fatalf("unexpected role: %s ok=%v", role, ok)
	}
}
