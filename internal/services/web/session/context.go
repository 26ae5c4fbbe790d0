package session

import "context"

type activeKey struct{}

type restoredKey struct{}

// WithActive marks ctx as running on s's loop.
func WithActive(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, activeKey{}, s)
}

// Active returns the session whose loop ctx belongs to, or nil.
func Active(ctx context.Context) *Session {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(activeKey{}).(*Session)
	return s
}

// WithRestored attaches bookmarked input values for the first page render.
func WithRestored(ctx context.Context, values map[string]any) context.Context {
	if len(values) == 0 {
		return ctx
	}
	return context.WithValue(ctx, restoredKey{}, values)
}

// Restored returns the bookmarked value for a qualified input name.
func Restored(ctx context.Context, name string) (any, bool) {
	if ctx == nil {
		return nil, false
	}
	values, _ := ctx.Value(restoredKey{}).(map[string]any)
	value, ok := values[name]
	return value, ok
}
