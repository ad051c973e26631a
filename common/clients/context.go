package clients

import "context"

type contextKey string

const memberIDKey contextKey = "member_id"

// WithMemberID returns a context carrying the acting member's ID
func WithMemberID(ctx context.Context, memberID string) context.Context {
	return context.WithValue(ctx, memberIDKey, memberID)
}

// GetMemberID extracts the acting member's ID from context
func GetMemberID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(memberIDKey).(string)
	return id, ok && id != ""
}
