// internal/auth/context.go
//
// Request-scoped identity.
//
// The auth stage reads the session and attaches a User to the request
// context.  Downstream stages (account), templates, and app handlers read it
// back without touching the session themselves.
//
// Usage
// -----
//     ctx = auth.WithUser(ctx, auth.User{ID: 123, EmailVerified: true})
//
//     u, ok := auth.FromContext(ctx)   // {123 true}, true
//     id, ok := auth.UserID(ctx)       // 123, true
//
// Notes
// -----
// • Anonymous requests carry no User; FromContext returns ok == false.
// • Oxford commas, two spaces after periods.

package auth

import "context"

// User is the authenticated principal for one request.
type User struct {
	ID            int64
	EmailVerified bool
}

// userKey is unexported to avoid context-key collisions.
type userKey struct{}

// WithUser returns a new context carrying u.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// FromContext extracts the User.  ok is false for anonymous requests.
func FromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey{}).(User)
	return u, ok
}

// UserID extracts the user ID from ctx.  It returns (0, false) if no user is
// set.
func UserID(ctx context.Context) (int64, bool) {
	u, ok := FromContext(ctx)
	return u.ID, ok
}
