package httppresentation

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated caller as asserted by the external identity
// provider's bearer token. It is passed explicitly to services, never read
// from a global.
type Identity struct {
	UserID string
	Role   string
}

type identityKey struct{}

// IdentityFrom returns the request identity, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator verifies bearer tokens and stores the resulting Identity on
// the request context. Requests without a token pass through anonymous;
// handlers that need a user reject them via RequireAuth.
func Authenticator(secret string) func(http.Handler) http.Handler {
	keyFunc := func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("auth: unexpected signing method")
		}
		return []byte(secret), nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			raw := strings.TrimPrefix(header, "Bearer ")
			claims := &tokenClaims{}
			token, err := jwt.ParseWithClaims(raw, claims, keyFunc,
				jwt.WithValidMethods([]string{"HS256"}),
			)
			if err != nil || !token.Valid || claims.Subject == "" {
				writeError(w, http.StatusUnauthorized, errors.New("invalid bearer token"))
				return
			}

			identity := Identity{UserID: claims.Subject, Role: claims.Role}
			ctx := context.WithValue(r.Context(), identityKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFrom(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, errors.New("authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects callers whose role claim does not match.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, errors.New("authentication required"))
				return
			}
			if identity.Role != role {
				writeError(w, http.StatusForbidden, errors.New("insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
