package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/tenanthub/internal/app/system/apierr"
	"github.com/dalemusser/tenanthub/internal/app/system/tokens"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-Admin helper                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentAdminKey ctxKey = "currentAdmin"

// CurrentAdmin returns the identity bound to the request's bearer token and
// a “found?” flag.
func CurrentAdmin(r *http.Request) (tokens.Identity, bool) {
	id, ok := r.Context().Value(currentAdminKey).(tokens.Identity)
	return id, ok
}

// WithIdentity returns r carrying id, as RequireBearer would attach it.
func WithIdentity(r *http.Request, id tokens.Identity) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentAdminKey, id))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Bearer middleware                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// Verifier checks a raw token. *tokens.Codec satisfies it.
type Verifier interface {
	Validate(token string) (tokens.Identity, bool)
}

// RequireBearer rejects requests without a valid `Authorization: Bearer`
// token with 401 and attaches the token's identity otherwise. It never
// touches the database.
func RequireBearer(v Verifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				apierr.Write(w, r, logger, apierr.New(apierr.Unauthorized, "auth.RequireBearer", "Not authenticated"))
				return
			}
			id, ok := v.Validate(raw)
			if !ok {
				logger.Debug("bearer token rejected", zap.String("path", r.URL.Path))
				apierr.Write(w, r, logger, apierr.New(apierr.Unauthorized, "auth.RequireBearer", "Could not validate credentials"))
				return
			}
			next.ServeHTTP(w, WithIdentity(r, id))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, tok, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}
