package actor

import (
	"context"
	"errors"
	"strings"
)

type contextKey string

const actorKey contextKey = "actor"

// Errors for actor context operations
var (
	ErrMissingActor = errors.New("authenticated user is required")
	ErrUnknownRole  = errors.New("unknown role")
	ErrForbidden    = errors.New("role is not allowed to perform this operation")
)

// Role of an authenticated user, as asserted by the upstream gateway.
type Role string

const (
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
)

// ParseRole accepts the canonical role names plus the legacy Spanish ones
// still emitted by older gateway configurations.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "manager", "gerente":
		return RoleManager, nil
	case "cashier", "cajero":
		return RoleCashier, nil
	}
	return "", ErrUnknownRole
}

// Actor identifies who performs an operation. The core never authenticates;
// it trusts whatever the gateway put in the request.
type Actor struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// Can reports whether the actor holds one of roles. An empty list allows
// every authenticated actor.
func (a Actor) Can(roles ...Role) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// Validate checks that the actor carries an id and a known role.
func (a Actor) Validate() error {
	if a.UserID == "" {
		return ErrMissingActor
	}
	if a.Role != RoleManager && a.Role != RoleCashier {
		return ErrUnknownRole
	}
	return nil
}

// ToContext stores the actor in ctx.
func ToContext(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// FromContext returns the actor stored in ctx.
func FromContext(ctx context.Context) (Actor, error) {
	a, ok := ctx.Value(actorKey).(Actor)
	if !ok || a.UserID == "" {
		return Actor{}, ErrMissingActor
	}
	return a, nil
}

// UserID returns the acting user's id or "" when ctx has no actor.
func UserID(ctx context.Context) string {
	a, _ := FromContext(ctx)
	return a.UserID
}
