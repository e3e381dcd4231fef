package auth

import "context"

type principalContextKey struct{}

// ContextWithPrincipal stores the authenticated user in context.
func ContextWithPrincipal(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, principalContextKey{}, user)
}

// PrincipalFromContext extracts the authenticated user from context.
func PrincipalFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(principalContextKey{}).(*User)
	return user
}
