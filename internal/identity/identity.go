package identity

import "context"

// Identity is the owner of a cart: either an authenticated user id or an
// opaque anonymous session token, never both.
type Identity struct {
	UserID       *int64
	SessionToken *string
}

func User(id int64) Identity {
	return Identity{UserID: &id}
}

func Anonymous(token string) Identity {
	return Identity{SessionToken: &token}
}

func (i Identity) IsUser() bool {
	return i.UserID != nil
}

func (i Identity) Valid() bool {
	return (i.UserID != nil) != (i.SessionToken != nil)
}

type ctxKey string

const identityKey ctxKey = "identity"

// WithContext attaches the resolved identity to the request context.
func WithContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext retrieves the identity resolved by the auth middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
