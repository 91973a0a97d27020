package auth

import (
	"context"
	"strings"
)

// User is the authenticated identity carried through request contexts.
type User struct {
	Username string
	Role     Role
}

type userContextKey struct{}

// ContextWithUser attaches the authenticated user to the context.
func ContextWithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userContextKey{}, &user)
}

// UserFromContext extracts the authenticated user from the context.
func UserFromContext(ctx context.Context) (User, bool) {
	if ctx == nil {
		return User{}, false
	}
	v, ok := ctx.Value(userContextKey{}).(*User)
	if !ok || v == nil || strings.TrimSpace(v.Username) == "" {
		return User{}, false
	}
	return *v, true
}

// RoleFromContext returns the role of the authenticated user, if any.
func RoleFromContext(ctx context.Context) (Role, bool) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return "", false
	}
	return user.Role, true
}
