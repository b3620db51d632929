package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	in := Principal{ID: uuid.New(), Role: RolePatient, Mobile: "0711111111"}
	raw, err := issuer.Sign(in)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	out, err := issuer.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if out.ID != in.ID || out.Role != in.Role || out.Mobile != in.Mobile {
		t.Fatalf("principal = %+v, want %+v", out, in)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	other := NewTokenIssuer("other-secret", time.Hour)

	raw, err := issuer.Sign(Principal{ID: uuid.New(), Role: RoleAdmin})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := other.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute)

	raw, err := issuer.Sign(Principal{ID: uuid.New(), Role: RoleAdmin})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := issuer.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := issuer.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("raw %q: err = %v, want ErrInvalidToken", raw, err)
		}
	}
}

func TestPasswordHashAndCheck(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !CheckPassword(hash, "s3cret") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("wrong password accepted")
	}
}
