package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
)

// Authenticator resolves an inbound request to an opaque owner key.
// Identity verification is deliberately pluggable; the workflows only ever
// see the resulting key.
type Authenticator interface {
	Authenticate(r *http.Request) (string, error)
}

type ctxKey int8

const ctxKeyOwner ctxKey = iota

// OwnerHeader is the header carrying the owner key in header auth mode.
const OwnerHeader = "X-User-ID"

// HeaderAuthenticator trusts a client-supplied owner key header. This is
// the no-verification identity scheme; put a gateway in front of it.
type HeaderAuthenticator struct{}

func (HeaderAuthenticator) Authenticate(r *http.Request) (string, error) {
	key := strings.TrimSpace(r.Header.Get(OwnerHeader))
	if key == "" {
		return "", fmt.Errorf("missing %s header", OwnerHeader)
	}
	return key, nil
}

// BearerAuthenticator verifies an HMAC-signed JWT from the Authorization
// header and uses its subject claim as the owner key.
type BearerAuthenticator struct {
	secret []byte
}

func NewBearerAuthenticator(secret string) *BearerAuthenticator {
	return &BearerAuthenticator{secret: []byte(secret)}
}

func (b *BearerAuthenticator) Authenticate(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", errors.New("missing bearer token")
	}

	token, err := jwt.Parse(strings.TrimSpace(raw), func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return b.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("could not validate credentials: %w", err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}

// OwnerCtx authenticates the request and stores the owner key on the
// context for the handlers below it.
func OwnerCtx(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ownerKey, err := auth.Authenticate(r)
			if err != nil {
				_ = render.Render(w, r, ErrUnauthorized(err))
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyOwner, ownerKey)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ownerFromCtx returns the owner key placed by OwnerCtx. Handlers below the
// middleware can assume it is present.
func ownerFromCtx(ctx context.Context) string {
	key, _ := ctx.Value(ctxKeyOwner).(string)
	return key
}
