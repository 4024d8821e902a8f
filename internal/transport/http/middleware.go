package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"stamply/internal/identity"
	"stamply/pkg/platform/sentinel"
)

// CredentialHeader carries the user credential issued by the activation
// daemon.
const CredentialHeader = "X-Auth-Token"

// Authorizer maps a presented credential to an identity. Satisfied by the
// identity service's access gate.
type Authorizer interface {
	Authorize(ctx context.Context, credential string) (identity.Identity, error)
}

type contextKeyIdentity struct{}

// IdentityFrom returns the authenticated identity stored by RequireUser.
func IdentityFrom(ctx context.Context) (identity.Identity, bool) {
	ident, ok := ctx.Value(contextKeyIdentity{}).(identity.Identity)
	return ident, ok
}

// RequireUser authenticates requests by credential header. Provisional
// credentials are rejected exactly like unknown ones.
func RequireUser(gate Authorizer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, err := gate.Authorize(r.Context(), r.Header.Get(CredentialHeader))
			if err != nil {
				writeError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), contextKeyIdentity{}, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin authenticates requests with an HS256-signed bearer token
// carrying role=admin. Replaces the older scheme of comparing a shared
// secret header.
func RequireAdmin(signingKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if raw == "" || raw == r.Header.Get("Authorization") {
				writeError(w, sentinel.ErrUnauthorized)
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(signingKey), nil
			}, jwt.WithExpirationRequired())
			if err != nil || !token.Valid || claims["role"] != "admin" {
				logger.Warn("admin token rejected", "path", r.URL.Path, "error", err)
				writeError(w, sentinel.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// adminTokenTTL bounds how long a minted admin token stays usable. Expired
// tokens are rejected at parse time; mint a fresh one.
const adminTokenTTL = time.Hour

// NewAdminToken mints a short-lived admin bearer token. Used by operators and
// tests.
func NewAdminToken(signingKey string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "admin",
		"iat":  now.Unix(),
		"exp":  now.Add(adminTokenTTL).Unix(),
	})
	return token.SignedString([]byte(signingKey))
}
