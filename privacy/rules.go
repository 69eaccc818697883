package privacy

import (
	"context"
	"slices"

	"github.com/google/uuid"
)

// Viewer represents the authenticated user making a request.
// This interface should be implemented by application-specific user types.
type Viewer interface {
	// GetID returns the viewer's unique identifier.
	GetID() string
	// GetRoles returns the viewer's roles.
	GetRoles() []string
	// GetGroups returns the ids of the groups the viewer belongs to.
	GetGroups() []uuid.UUID
}

// viewerCtxKey is the context key for storing the viewer.
type viewerCtxKey struct{}

// WithViewer returns a new context with the viewer attached.
func WithViewer(ctx context.Context, viewer Viewer) context.Context {
	return context.WithValue(ctx, viewerCtxKey{}, viewer)
}

// ViewerFromContext retrieves the viewer from the context.
// Returns nil if no viewer is present.
func ViewerFromContext(ctx context.Context) Viewer {
	v, _ := ctx.Value(viewerCtxKey{}).(Viewer)
	return v
}

// SimpleViewer is a basic implementation of the Viewer interface.
type SimpleViewer struct {
	UserID string
	Roles  []string
	Groups []uuid.UUID
}

// GetID returns the user ID.
func (v *SimpleViewer) GetID() string {
	return v.UserID
}

// GetRoles returns the user's roles.
func (v *SimpleViewer) GetRoles() []string {
	return v.Roles
}

// GetGroups returns the user's groups.
func (v *SimpleViewer) GetGroups() []uuid.UUID {
	return v.Groups
}

// AlwaysAllowRule returns a rule that always returns an Allow decision.
func AlwaysAllowRule() Rule {
	return fixedDecision{Allow}
}

// AlwaysDenyRule returns a rule that always returns a Deny decision.
func AlwaysDenyRule() Rule {
	return fixedDecision{Deny}
}

// ContextRule creates a rule from a context evaluation function.
func ContextRule(eval func(context.Context) error) Rule {
	return RuleFunc(func(ctx context.Context, _ Access) error {
		return eval(ctx)
	})
}

// OnAccess evaluates the given rule only for the given access.
func OnAccess(rule Rule, a Access) Rule {
	return RuleFunc(func(ctx context.Context, got Access) error {
		if got == a {
			return rule.Eval(ctx, got)
		}
		return Skip
	})
}

// DenyAccessRule returns a rule denying the given access.
func DenyAccessRule(a Access) Rule {
	return OnAccess(RuleFunc(func(_ context.Context, a Access) error {
		return Denyf("relmap/privacy: %s access is not allowed", a)
	}), a)
}

// DenyIfNoViewer returns a rule that denies access if no viewer is present
// in the context.
func DenyIfNoViewer() Rule {
	return ContextRule(func(ctx context.Context) error {
		if ViewerFromContext(ctx) == nil {
			return Denyf("relmap/privacy: viewer required")
		}
		return Skip
	})
}

// HasRole returns a rule that allows unrestricted access if the viewer has
// the specified role.
func HasRole(role string) Rule {
	return HasAnyRole(role)
}

// HasAnyRole returns a rule that allows unrestricted access if the viewer
// has any of the specified roles.
func HasAnyRole(roles ...string) Rule {
	return ContextRule(func(ctx context.Context) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil {
			return Skip
		}
		viewerRoles := viewer.GetRoles()
		for _, role := range roles {
			if slices.Contains(viewerRoles, role) {
				return Allow
			}
		}
		return Skip
	})
}

type fixedDecision struct {
	decision error
}

func (f fixedDecision) Eval(context.Context, Access) error {
	return f.decision
}
