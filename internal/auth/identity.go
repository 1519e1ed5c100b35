package auth

import "context"

const roleAdmin = "admin"

// Identity is the authenticated caller. Permission decisions beyond the role are made
// by the handlers and services that receive it.
type Identity struct {
	ID   string
	Role string
}

func (i Identity) IsAdmin() bool {
	return i.Role == roleAdmin
}

func (i Identity) HasRole(roles ...string) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.ID == "" {
		return Identity{}, false
	}
	return id, true
}
