// Package auth resolves the current user for a request. Identities are issued
// elsewhere; this package only carries and verifies them.
package auth

import "context"

type ctxKey struct{}

// WithUserID returns a context carrying an authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the session user id, or "" when there is no session.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
