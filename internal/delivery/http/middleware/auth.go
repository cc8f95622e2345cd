package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	h "eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/domain"

	"github.com/google/uuid"
)

type callerKey struct{}

// WithCaller returns a context carrying the authenticated caller.
func WithCaller(ctx context.Context, c *domain.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext returns the caller RequireAuth attached to the request, if any.
func CallerFromContext(ctx context.Context) (*domain.Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(*domain.Caller)
	return c, ok && c != nil && c.UserID != ""
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
// The scheme is matched case-insensitively. The returned message is the 401 reason.
func bearerToken(header string) (token, reason string) {
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, rest, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", "invalid authorization format"
	}
	token = strings.TrimSpace(rest)
	if token == "" {
		return "", "missing token"
	}
	return token, ""
}

// RequireAuth returns a wrapper that verifies the Bearer token and attaches the caller to the
// request context. Tokens whose subject is not a user UUID are rejected, so handlers never pass a
// malformed id to storage. Rejections answer 401 and do not call next.
func RequireAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, reason := bearerToken(r.Header.Get("Authorization"))
			if reason != "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, reason)
				return
			}
			caller, err := verifier.Verify(token)
			if err != nil {
				logger.DebugContext(r.Context(), "token rejected", "path", r.URL.Path, "err", err)
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			id, err := uuid.Parse(caller.UserID)
			if err != nil {
				logger.WarnContext(r.Context(), "token subject is not a user id", "path", r.URL.Path, "subject", caller.UserID)
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			c := *caller
			c.UserID = id.String()
			next(w, r.WithContext(WithCaller(r.Context(), &c)))
		}
	}
}
