// Package auth guards HTTP routes with bearer access tokens and exposes the
// authenticated user to handlers through the request context.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"knowledgebase/internal/domain/entity"
	"knowledgebase/internal/handler/http/respond"
	"knowledgebase/internal/observability/logging"
)

// Authenticator resolves an access token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (*entity.User, error)
}

type ctxKey string

const ctxUser ctxKey = "user"

// Guard wraps handlers that require a signed-in user.
type Guard struct {
	Auth Authenticator
}

// Require rejects requests without a valid access token with 401 and
// otherwise runs next with the user in the context.
func (g Guard) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r.Header.Get("Authorization"))
		if !ok {
			respond.Error(w, r, entity.ErrUnauthorized)
			return
		}
		user, err := g.Auth.Authenticate(r.Context(), token)
		if err != nil {
			if entity.KindOf(err) != entity.KindUnauthorized {
				// 認証基盤の障害は 500 として扱う
				respond.Error(w, r, err)
				return
			}
			logging.FromContext(r.Context()).Debug("rejected access token",
				slog.String("path", r.URL.Path))
			respond.Error(w, r, entity.ErrUnauthorized)
			return
		}

		ctx := WithUser(r.Context(), user)
		ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With(slog.String("user_id", user.ID)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireFunc is Require for a handler function.
func (g Guard) RequireFunc(fn http.HandlerFunc) http.Handler {
	return g.Require(fn)
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
// The scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *entity.User) context.Context {
	return context.WithValue(ctx, ctxUser, user)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*entity.User, bool) {
	u, ok := ctx.Value(ctxUser).(*entity.User)
	return u, ok && u != nil
}
