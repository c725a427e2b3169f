package auth

import (
	"net/http"
	"testing"
	"time"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)

	token, err := m.Generate(42)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	userID, err := m.UserID(token)
	if err != nil {
		t.Fatalf("UserID: %v", err)
	}
	if userID != 42 {
		t.Fatalf("userID = %d, want 42", userID)
	}

	exp, err := m.Expiry(token)
	if err != nil {
		t.Fatalf("Expiry: %v", err)
	}
	if until := time.Until(exp); until < 59*time.Minute || until > time.Hour {
		t.Fatalf("expiry %v from now", until)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTManager("secret-a", time.Hour).Generate(1)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := NewJWTManager("secret-b", time.Hour).Verify(token); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	token, err := NewJWTManager("secret", -time.Minute).Generate(1)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := NewJWTManager("secret", time.Hour).Verify(token); err == nil {
		t.Fatal("expected verification failure for expired token")
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)

	if _, err := ExtractTokenFromHeader(req); err == nil {
		t.Fatal("expected error for missing header")
	}

	req.Header.Set("Authorization", "Basic abc")
	if _, err := ExtractTokenFromHeader(req); err == nil {
		t.Fatal("expected error for non-bearer header")
	}

	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	token, err := ExtractTokenFromHeader(req)
	if err != nil || token != "abc.def.ghi" {
		t.Fatalf("token = %q, %v", token, err)
	}
}
