package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"

	"wanderlist/globals"
	"wanderlist/utils"
)

// JWT claims
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier validates a raw bearer token.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 8 || !strings.EqualFold(h[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

type Middleware func(httprouter.Handle) httprouter.Handle

// Chain applies mws so that the first one runs outermost.
func Chain(mws ...Middleware) Middleware {
	return func(final httprouter.Handle) httprouter.Handle {
		for i := len(mws) - 1; i >= 0; i-- {
			final = mws[i](final)
		}
		return final
	}
}

// Authenticate rejects requests without a valid token and stores the
// user id in the request context.
func Authenticate(v TokenVerifier) Middleware {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			token := BearerToken(r)
			if token == "" {
				utils.RespondWithError(w, http.StatusUnauthorized, "Missing token")
				return
			}
			claims, err := v.Verify(token)
			if err != nil {
				utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), globals.UserIDKey, claims.UserID)
			next(w, r.WithContext(ctx), ps)
		}
	}
}

// OptionalAuth sets the user id when a valid token is present and
// proceeds either way.
func OptionalAuth(v TokenVerifier) Middleware {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			if token := BearerToken(r); token != "" {
				if claims, err := v.Verify(token); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), globals.UserIDKey, claims.UserID))
				}
			}
			next(w, r, ps)
		}
	}
}
