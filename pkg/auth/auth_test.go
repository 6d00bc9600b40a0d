package auth

import (
	"testing"
	"time"
)

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid bearer", "Bearer abc123", "abc123", false},
		{"lowercase bearer", "bearer abc123", "abc123", false},
		{"empty header", "", "", true},
		{"missing scheme", "abc123", "", true},
		{"wrong scheme", "Basic abc123", "", true},
		{"empty token", "Bearer ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractToken(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJWT_RoundTrip(t *testing.T) {
	j, err := NewJWT("test-secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewJWT() error = %v", err)
	}

	access, refresh, err := j.GenerateTokens("user-1", "a@b.com", "user")
	if err != nil {
		t.Fatalf("GenerateTokens() error = %v", err)
	}

	user, err := j.VerifyAccessToken(access)
	if err != nil {
		t.Fatalf("VerifyAccessToken() error = %v", err)
	}
	if user.ID != "user-1" || user.Email != "a@b.com" || user.Role != "user" {
		t.Errorf("unexpected user from access token: %+v", user)
	}

	claims, err := j.VerifyRefreshToken(refresh)
	if err != nil {
		t.Fatalf("VerifyRefreshToken() error = %v", err)
	}
	if claims.UserID != "user-1" || claims.TokenID == "" {
		t.Errorf("unexpected refresh claims: %+v", claims)
	}
}

func TestJWT_RejectsTamperedToken(t *testing.T) {
	j, _ := NewJWT("test-secret", time.Minute, time.Hour)
	other, _ := NewJWT("other-secret", time.Minute, time.Hour)

	access, _, err := other.GenerateTokens("user-1", "a@b.com", "user")
	if err != nil {
		t.Fatalf("GenerateTokens() error = %v", err)
	}

	if _, err := j.VerifyAccessToken(access); err == nil {
		t.Error("expected verification failure for token signed with wrong key")
	}
}

func TestNewJWT_RequiresSecret(t *testing.T) {
	if _, err := NewJWT("", 0, 0); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	ok, err := VerifyPassword(hash, "s3cret-pass")
	if err != nil {
		t.Fatalf("VerifyPassword() error = %v", err)
	}
	if !ok {
		t.Error("expected password to verify")
	}

	ok, err = VerifyPassword(hash, "wrong-pass")
	if err != nil {
		t.Fatalf("VerifyPassword() error = %v", err)
	}
	if ok {
		t.Error("expected wrong password to fail")
	}
}

func TestVerifyPassword_RejectsMalformedHash(t *testing.T) {
	for _, hash := range []string{"", "bcrypt$x$y", "argon2id$only-two-parts"} {
		if _, err := VerifyPassword(hash, "pass"); err == nil {
			t.Errorf("expected error for malformed hash %q", hash)
		}
	}
}
