// Package session carries the authenticated caller through the request
// context. There is no process-global current user: middleware builds a
// Session from the verified token and every service receives it explicitly.
package session

import "context"

// Session identifies the authenticated caller of a request.
type Session struct {
	UserID      uint64 // Account ID in the issuing table (admins or users).
	Email       string // Login email.
	DisplayName string // Name shown in the dashboard, may be empty.
	Role        string // models.RoleAdmin or models.RoleUser.
	IsAdmin     bool   // True when issued from the admin console login.
}

type ctxKey struct{}

// With returns a context carrying the session.
func With(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext extracts the session, if any, from the context.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(ctxKey{}).(*Session)
	if !ok || sess == nil {
		return nil, false
	}
	return sess, true
}
