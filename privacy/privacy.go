package privacy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	ql "github.com/syssam/relmap/querylanguage"
	"github.com/syssam/relmap/schema"
	"github.com/syssam/relmap/schema/mixin"
)

// Policy decision sentinel errors.
//
// These errors are used as return values from rules to indicate how the
// policy evaluation should proceed. Use errors.Is() to check for these
// values:
//
//	if errors.Is(err, privacy.Allow) { ... }
//	if errors.Is(err, privacy.Deny) { ... }
//	if errors.Is(err, privacy.Skip) { ... }
var (
	// Allow may be returned by rules to indicate that the policy
	// evaluation should terminate without restricting the filter.
	Allow = errors.New("relmap/privacy: allow rule")

	// Deny may be returned by rules to indicate that the policy
	// evaluation should terminate with a deny decision.
	Deny = errors.New("relmap/privacy: deny rule")

	// Skip may be returned by rules to indicate that the policy
	// evaluation should continue to the next rule in the chain.
	Skip = errors.New("relmap/privacy: skip rule")
)

// Allowf returns a formatted wrapped Allow decision.
func Allowf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Allow)...)
}

// Denyf returns a formatted wrapped Deny decision.
func Denyf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Deny)...)
}

// Skipf returns a formatted wrapped Skip decision.
func Skipf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Skip)...)
}

// Access is the kind of access a filter is restricted for.
type Access uint8

// Access kinds.
const (
	Read Access = iota
	Write
)

func (a Access) String() string {
	if a == Write {
		return "write"
	}
	return "read"
}

// ParseAccess parses the string representation of an access kind.
func ParseAccess(s string) (Access, error) {
	switch s {
	case "", "read":
		return Read, nil
	case "write":
		return Write, nil
	}
	return Read, fmt.Errorf("relmap/privacy: unknown access %q", s)
}

// Default permission fields.
const (
	DefaultReadField  = mixin.ReadGroupsField
	DefaultWriteField = mixin.WriteGroupsField
)

// Rule decides on an access. See the package documentation for the meaning
// of the returned decisions.
type Rule interface {
	Eval(context.Context, Access) error
}

// RuleFunc type is an adapter which allows the use of ordinary functions as
// rules.
type RuleFunc func(context.Context, Access) error

// Eval returns f(ctx, a).
func (f RuleFunc) Eval(ctx context.Context, a Access) error {
	return f(ctx, a)
}

// Policy restricts filters to the objects the viewer may access.
type Policy struct {
	// ReadField and WriteField name the element-collection fields holding
	// the allowed group ids. Empty names select the defaults.
	ReadField  string
	WriteField string
	Rules      []Rule
}

// Field returns the permission field checked for the given access.
func (p Policy) Field(a Access) string {
	switch {
	case a == Write && p.WriteField != "":
		return p.WriteField
	case a == Write:
		return DefaultWriteField
	case p.ReadField != "":
		return p.ReadField
	default:
		return DefaultReadField
	}
}

// Restrict evaluates the rules and returns the filter restricted to the
// groups of the context viewer, the unrestricted filter on Allow, or the
// deny decision.
func (p Policy) Restrict(ctx context.Context, a Access, filter *ql.Criterion) (*ql.Criterion, error) {
	if decision, ok := DecisionFromContext(ctx); ok {
		if decision != nil {
			return nil, decision
		}
		return filter, nil
	}
	for _, r := range p.Rules {
		switch decision := r.Eval(ctx, a); {
		case decision == nil || errors.Is(decision, Skip):
		case errors.Is(decision, Allow):
			return filter, nil
		default:
			return nil, decision
		}
	}
	var groups []uuid.UUID
	if v := ViewerFromContext(ctx); v != nil {
		groups = v.GetGroups()
	}
	return Apply(filter, Filter(p, a, groups)), nil
}

// Filter returns the criterion matching the objects whose permission field
// holds one of the groups. Without groups it matches no object.
func Filter(p Policy, a Access, groups []uuid.UUID) *ql.Criterion {
	if len(groups) == 0 {
		return ql.Where(schema.IDColumn, ql.IsEqualTo, nil)
	}
	name := p.Field(a)
	c := ql.Where(name, ql.IsEqualTo, groups[0])
	for _, g := range groups[1:] {
		c = c.Or(ql.Where(name, ql.IsEqualTo, g))
	}
	return c
}

// Apply returns the conjunction of a user filter and a permission filter,
// each kept in its own group.
func Apply(filter, permission *ql.Criterion) *ql.Criterion {
	if filter == nil {
		return permission
	}
	return ql.All(filter, permission)
}

type decisionCtxKey struct{}

// DecisionContext creates a new context from the given parent context with
// a policy decision attach to it.
func DecisionContext(parent context.Context, decision error) context.Context {
	if decision == nil || errors.Is(decision, Skip) {
		return parent
	}
	return context.WithValue(parent, decisionCtxKey{}, decision)
}

// DecisionFromContext retrieves the policy decision from the context.
func DecisionFromContext(ctx context.Context) (error, bool) {
	decision, ok := ctx.Value(decisionCtxKey{}).(error)
	if ok && errors.Is(decision, Allow) {
		decision = nil
	}
	return decision, ok
}
