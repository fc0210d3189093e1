package collab

import (
	"context"
	"errors"
)

// ErrActorUnknown the actor's role cannot be established from the request
var ErrActorUnknown = errors.New("actor role unavailable")

// RolePermissionChecker answers elevation from the role carried in the verified access token
type RolePermissionChecker struct {
	elevated map[string]bool
}

// NewRolePermissionChecker roles listed in elevatedRoles may transfer sessions
func NewRolePermissionChecker(elevatedRoles []string) *RolePermissionChecker {
	set := make(map[string]bool, len(elevatedRoles))
	for _, r := range elevatedRoles {
		set[r] = true
	}
	return &RolePermissionChecker{elevated: set}
}

// IsElevated errors when ctx carries no actor or a different actor; callers fail closed
func (p *RolePermissionChecker) IsElevated(ctx context.Context, actorID string) (bool, error) {
	a, ok := ActorFrom(ctx)
	if !ok || a.ID != actorID || a.Role == "" {
		return false, ErrActorUnknown
	}
	return p.elevated[a.Role], nil
}
