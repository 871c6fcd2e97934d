package auth

import "context"

// SetClaimsForTest injects a subject and role into the context for testing purposes.
func SetClaimsForTest(ctx context.Context, subject string, role Role) context.Context {
	return withClaims(ctx, subject, role)
}
