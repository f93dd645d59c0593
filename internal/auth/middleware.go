package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// TokenParser verifies a raw bearer token.
type TokenParser interface {
	Parse(raw string) (*Claims, error)
}

type ctxKey struct{}

// ClaimsFromContext returns the claims RequireToken stored, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok
}

// WithClaims stores c on ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// RequireToken rejects requests without a valid bearer token with 401.
// Missing header, wrong scheme, empty token and failed verification are all
// treated the same way.
func RequireToken(p TokenParser, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearer(r.Header.Get("Authorization"))
			if !ok {
				logger.Debugw("missing bearer token", "path", r.URL.Path)
				unauthorized(w, "Access denied! Unauthorized user")
				return
			}
			claims, err := p.Parse(raw)
			if err != nil {
				logger.Debugw("invalid bearer token", "path", r.URL.Path, "err", err)
				unauthorized(w, "Invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func bearer(header string) (string, bool) {
	scheme, tok, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(msg))
}
