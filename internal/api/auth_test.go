package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestHeaderAuthenticator(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/articles", nil)
	req.Header.Set(OwnerHeader, "  u1  ")

	owner, err := HeaderAuthenticator{}.Authenticate(req)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if owner != "u1" {
		t.Fatalf("expected trimmed owner key, got %q", owner)
	}

	req = httptest.NewRequest(http.MethodGet, "/articles", nil)
	if _, err := (HeaderAuthenticator{}).Authenticate(req); err == nil {
		t.Fatalf("expected error for missing header")
	}
}

func signToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestBearerAuthenticator(t *testing.T) {
	auth := NewBearerAuthenticator("shared-secret")

	req := httptest.NewRequest(http.MethodGet, "/articles", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "shared-secret", "auth0|12345"))

	owner, err := auth.Authenticate(req)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if owner != "auth0|12345" {
		t.Fatalf("expected subject claim as owner key, got %q", owner)
	}
}

func TestBearerAuthenticatorRejects(t *testing.T) {
	auth := NewBearerAuthenticator("shared-secret")

	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Basic dXNlcjpwYXNz",
		"empty token":    "Bearer   ",
		"wrong key":      "Bearer " + signToken(t, "other-secret", "u1"),
		"no subject":     "Bearer " + signToken(t, "shared-secret", ""),
		"garbage":        "Bearer not.a.jwt",
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/articles", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			if _, err := auth.Authenticate(req); err == nil {
				t.Fatalf("expected rejection")
			}
		})
	}
}

func TestBearerAuthenticatorRejectsNonHMAC(t *testing.T) {
	auth := NewBearerAuthenticator("shared-secret")

	// alg=none style token must not pass the keyfunc.
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/articles", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	if _, err := auth.Authenticate(req); err == nil {
		t.Fatalf("expected rejection of unsigned token")
	}
}
