package authgate

import "context"

type clientIPContextKey struct{}

// WithClientIP attaches the caller's source address to ctx. The Engine uses
// it for the per-address brute-force counter and for audit events; without it
// only the per-username counter applies.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
