package auth

import (
	"context"

	"mt5panel/internal/models"
)

type ctxKey string

const userKey ctxKey = "userClaims"

// Claims is the caller identity extracted from a verified token.
type Claims struct {
	Subject string
	Role    string
	JWTID   string
}

func (c Claims) IsSuperadmin() bool {
	return c.Role == models.RoleSuperadmin
}

func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, userKey, c)
}

func FromContext(ctx context.Context) Claims {
	if v, ok := ctx.Value(userKey).(Claims); ok {
		return v
	}
	return Claims{}
}

func Subject(ctx context.Context) string {
	return FromContext(ctx).Subject
}
