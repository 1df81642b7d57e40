package auth

import (
	"context"

	"github.com/jason-s-yu/scorekeeper/internal/models"
)

type ctxKey struct{}

// WithUser stores the authenticated caller in ctx.
func WithUser(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFromContext returns the caller stored by WithUser.
func UserFromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(models.User)
	return u, ok
}
