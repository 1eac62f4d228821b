package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/auth"
	"github.com/scottjosephstudio/sohcahtoa-sub000/pkg/httputil"
	"github.com/scottjosephstudio/sohcahtoa-sub000/pkg/logger"
)

var (
	errInvalidAuthHeader = errors.New("authorization header must use the Bearer scheme")
	errInvalidToken      = errors.New("invalid or expired token")
	errMissingIdentity   = errors.New("an Authorization token or X-Session-ID header is required")
)

type contextKey string

const identityKey contextKey = "identity"

// Identity describes who owns the cart for this request. Authenticated
// requests carry the user id from a verified token; anonymous requests fall
// back to the browser session id, so carts exist before any account does.
type Identity struct {
	OwnerID       string
	UserID        string
	SessionID     string
	Authenticated bool
}

// RequireIdentity resolves the request identity from a Bearer token or the
// X-Session-ID header and rejects requests that present neither. A present but
// invalid token is rejected outright rather than silently downgraded.
func RequireIdentity(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, err := resolveIdentity(r, jwtManager)
			if err != nil {
				httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: err.Error()},
				})
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, ident)
			ctx = logger.WithUserID(ctx, ident.OwnerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser only passes requests whose identity is an authenticated user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident := identityFromContext(r.Context())
		if !ident.Authenticated {
			httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "authentication required"},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// OptionalIdentity resolves identity when present but lets anonymous requests
// through without one. Used on auth endpoints, where the session id is needed
// to migrate the cart but no identity exists yet.
func OptionalIdentity(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, err := resolveIdentity(r, jwtManager)
			if err != nil {
				ident = Identity{SessionID: r.Header.Get("X-Session-ID")}
			}

			ctx := context.WithValue(r.Context(), identityKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveIdentity(r *http.Request, jwtManager *auth.JWTManager) (Identity, error) {
	sessionID := r.Header.Get("X-Session-ID")

	if header := r.Header.Get("Authorization"); header != "" {
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return Identity{}, errInvalidAuthHeader
		}
		claims, err := jwtManager.ValidateToken(tokenString)
		if err != nil {
			return Identity{}, errInvalidToken
		}
		return Identity{
			OwnerID:       claims.UserID,
			UserID:        claims.UserID,
			SessionID:     sessionID,
			Authenticated: true,
		}, nil
	}

	if sessionID == "" {
		return Identity{}, errMissingIdentity
	}
	return Identity{OwnerID: sessionID, SessionID: sessionID}, nil
}

func identityFromContext(ctx context.Context) Identity {
	ident, _ := ctx.Value(identityKey).(Identity)
	return ident
}

// ContentTypeJSON enforces a JSON content type on requests with a body.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			contentType := r.Header.Get("Content-Type")
			if contentType != "" && !strings.HasPrefix(contentType, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNSUPPORTED_MEDIA_TYPE", Message: "Content-Type must be application/json"},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
