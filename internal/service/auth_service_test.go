package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizhub-backend/internal/config"
)

func newTestAuthService(issuer, audience string) *AuthService {
	cfg := &config.Config{
		AuthJWTSecret: "test-secret",
		AuthIssuer:    issuer,
		AuthAudience:  audience,
	}
	return NewAuthService(cfg, nil, nil, zerolog.Nop())
}

func TestValidateTokenRoundTrip(t *testing.T) {
	s := newTestAuthService("https://idp.example.com", "quizhub")

	token, err := s.IssueToken("user-123", "Ada", "ada@example.com", time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	claims, err := s.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.Subject != "user-123" || claims.Name != "Ada" || claims.Email != "ada@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	s := newTestAuthService("https://idp.example.com", "quizhub")

	sign := func(secret string, method jwt.SigningMethod, claims Claims) string {
		t.Helper()
		tok, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return tok
	}
	valid := func() Claims {
		return Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "https://idp.example.com",
			Audience:  jwt.ClaimStrings{"quizhub"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
	}

	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	wrongIssuer := valid()
	wrongIssuer.Issuer = "https://evil.example.com"

	wrongAudience := valid()
	wrongAudience.Audience = jwt.ClaimStrings{"other"}

	noSubject := valid()
	noSubject.Subject = ""

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not-a-jwt", ErrTokenInvalid},
		{"wrong secret", sign("other-secret", jwt.SigningMethodHS256, valid()), ErrTokenInvalid},
		{"wrong method", sign("test-secret", jwt.SigningMethodHS512, valid()), ErrTokenInvalid},
		{"expired", sign("test-secret", jwt.SigningMethodHS256, expired), ErrTokenExpired},
		{"wrong issuer", sign("test-secret", jwt.SigningMethodHS256, wrongIssuer), ErrTokenInvalid},
		{"wrong audience", sign("test-secret", jwt.SigningMethodHS256, wrongAudience), ErrTokenInvalid},
		{"missing subject", sign("test-secret", jwt.SigningMethodHS256, noSubject), ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ValidateToken(tt.token)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestValidateTokenWithoutIssuerCheck(t *testing.T) {
	s := newTestAuthService("", "")

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "anything",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := s.ValidateToken(tok); err != nil {
		t.Fatalf("expected token to be accepted, got %v", err)
	}
}
