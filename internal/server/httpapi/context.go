package httpapi

import (
	"context"

	"github.com/dmitrijs2005/todokeeper/internal/server/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

func withClaims(ctx context.Context, c *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// ClaimsFromContext returns the claims stored by the bearer middleware.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.Claims)
	return c, ok && c != nil
}
