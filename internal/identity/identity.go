package identity

import (
	"context"

	"github.com/google/uuid"
)

// Role is the caller's role as asserted by the auth service.
type Role string

const (
	RoleUser    Role = "user"
	RolePartner Role = "partner"
	RoleAdmin   Role = "admin"
)

// Identity is the verified (user, role, place) tuple attached to a request.
// The catalog service trusts it and performs no credential checks of its own.
type Identity struct {
	UserID  uuid.UUID
	Email   string
	Role    Role
	PlaceID *uuid.UUID // set for partners only
}

func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }

func (id Identity) IsPartner() bool { return id.Role == RolePartner }

// CanManagePlace reports whether the caller may manage offers of the given
// place: admins always, partners only for their own place.
func (id Identity) CanManagePlace(placeID uuid.UUID) bool {
	if id.Role == RoleAdmin {
		return true
	}
	return id.Role == RolePartner && id.PlaceID != nil && *id.PlaceID == placeID
}

type ctxKey struct{}

// WithContext attaches the identity to a request context.
func WithContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by the auth middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
