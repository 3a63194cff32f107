package ctxutil

import "context"

type identityKey struct{}

// Identity carries the Databricks Apps user identity forwarded with the
// request (x-forwarded-access-token / x-forwarded-email).
type Identity struct {
	Email string
	Token string
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func GetIdentity(ctx context.Context) *Identity {
	val := ctx.Value(identityKey{})
	if id, ok := val.(*Identity); ok {
		return id
	}
	return nil
}
