package security

import (
	"testing"
	"time"
)

func TestIssueAndValidateAccess(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}

	token, expiresAt, err := p.IssueAccess(42, "admin@example.com", true)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if token == "" {
		t.Fatal("token should not be empty")
	}
	if !expiresAt.After(time.Now()) {
		t.Error("expiresAt should be in the future")
	}

	userID, email, isAdmin, err := p.ValidateAccess(token)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if userID != 42 {
		t.Errorf("userID = %d, want 42", userID)
	}
	if email != "admin@example.com" {
		t.Errorf("email = %q, want %q", email, "admin@example.com")
	}
	if !isAdmin {
		t.Error("isAdmin should be true")
	}
}

func TestValidateAccess_Malformed(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, _, _, err := p.ValidateAccess(tok); err == nil {
			t.Errorf("ValidateAccess(%q) should fail", tok)
		}
	}
}

func TestValidateAccess_WrongIssuer(t *testing.T) {
	signer, err := ParsePrivateKey(testPrivateKeyPEM)
	if err != nil {
		t.Fatalf("ParsePrivateKey: %v", err)
	}
	pub, err := ParsePublicKey(testPublicKeyPEM)
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	issuerA := NewTokenProvider(signer, pub, "issuer-a", "test-audience", 15*time.Minute)
	issuerB := NewTokenProvider(signer, pub, "issuer-b", "test-audience", 15*time.Minute)

	token, _, err := issuerA.IssueAccess(1, "u@example.com", false)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, _, _, err := issuerB.ValidateAccess(token); err == nil {
		t.Error("ValidateAccess should reject a token from another issuer")
	}
}

func TestValidateAccess_WrongAudience(t *testing.T) {
	signer, err := ParsePrivateKey(testPrivateKeyPEM)
	if err != nil {
		t.Fatalf("ParsePrivateKey: %v", err)
	}
	pub, err := ParsePublicKey(testPublicKeyPEM)
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	audA := NewTokenProvider(signer, pub, "test-issuer", "aud-a", 15*time.Minute)
	audB := NewTokenProvider(signer, pub, "test-issuer", "aud-b", 15*time.Minute)

	token, _, err := audA.IssueAccess(1, "u@example.com", false)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, _, _, err := audB.ValidateAccess(token); err == nil {
		t.Error("ValidateAccess should reject a token for another audience")
	}
}

func TestValidateAccess_Expired(t *testing.T) {
	signer, err := ParsePrivateKey(testPrivateKeyPEM)
	if err != nil {
		t.Fatalf("ParsePrivateKey: %v", err)
	}
	pub, err := ParsePublicKey(testPublicKeyPEM)
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	p := NewTokenProvider(signer, pub, "test-issuer", "test-audience", -1*time.Minute)

	token, _, err := p.IssueAccess(1, "u@example.com", false)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, _, _, err := p.ValidateAccess(token); err == nil {
		t.Error("ValidateAccess should reject an expired token")
	}
}
