// Package auth carries the acting user's identity through a context.
package auth

import (
	"context"
	"errors"
	"strings"
)

var ErrNoUser = errors.New("no authenticated user")

type ctxKey string

const userContextKey ctxKey = "focusquest.auth.user"

// WithUser returns ctx carrying userID. Blank ids are stored as absent.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userContextKey, strings.TrimSpace(userID))
}

func UserFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userContextKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// RequireUser is UserFromContext as an error.
func RequireUser(ctx context.Context) (string, error) {
	u, ok := UserFromContext(ctx)
	if !ok {
		return "", ErrNoUser
	}
	return u, nil
}
