package querylanguage

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// A Criterion is one node of a filter chain: either a leaf condition or a
// parenthesized group, never both.
type Criterion struct {
	chain      []string
	op         Operator
	value      any
	ref        []string
	baseType   string
	connective Connective
	sub        *Criterion
	next       *Criterion
}

// Where returns a leaf criterion comparing the dot-separated field-name
// chain with a value. A nil value compares with NULL.
func Where(chain string, op Operator, v any) *Criterion {
	return &Criterion{chain: SplitChain(chain), op: op, value: v}
}

// WhereField returns a leaf criterion comparing two fields of the same row.
func WhereField(chain string, op Operator, other string) *Criterion {
	return &Criterion{chain: SplitChain(chain), op: op, ref: SplitChain(other)}
}

// Group returns a criterion holding c as a parenthesized sub-chain.
func Group(c *Criterion) *Criterion {
	return &Criterion{sub: c}
}

// All returns the conjunction of the given criteria. Multi-node chains are
// grouped so each argument keeps its meaning.
func All(cs ...*Criterion) *Criterion {
	return combine(And, cs)
}

// Any returns the disjunction of the given criteria. Multi-node chains are
// grouped so each argument keeps its meaning.
func Any(cs ...*Criterion) *Criterion {
	return combine(Or, cs)
}

func combine(conn Connective, cs []*Criterion) *Criterion {
	var (
		nodes []*Criterion
		conns []Connective
	)
	for _, c := range cs {
		if c == nil {
			continue
		}
		if c.next != nil {
			c = Group(c)
		}
		nodes = append(nodes, c)
		conns = append(conns, conn)
	}
	return link(nodes, conns)
}

// And appends x to the chain, joined by AND.
func (c *Criterion) And(x *Criterion) *Criterion {
	return c.join(And, x)
}

// Or appends x to the chain, joined by OR.
func (c *Criterion) Or(x *Criterion) *Criterion {
	return c.join(Or, x)
}

func (c *Criterion) join(conn Connective, x *Criterion) *Criterion {
	switch {
	case c == nil:
		return x
	case x == nil:
		return c
	}
	nodes, conns := c.flatten()
	conns[len(conns)-1] = conn
	xn, xc := x.flatten()
	return link(append(nodes, xn...), append(conns, xc...))
}

// OfType returns a copy of the criterion whose field-name chain is resolved
// against the given content type instead of the queried type. The content
// type must be the queried type, one of its ancestors or a descendant.
func (c *Criterion) OfType(typeName string) *Criterion {
	n := *c
	n.baseType = typeName
	return &n
}

// flatten returns the nodes of the chain and the connective following each.
func (c *Criterion) flatten() ([]*Criterion, []Connective) {
	var (
		nodes []*Criterion
		conns []Connective
	)
	for n := c; n != nil; n = n.next {
		nodes = append(nodes, n)
		conns = append(conns, n.connective)
	}
	return nodes, conns
}

// link rebuilds a chain from copies of nodes, conns[i] joining node i to
// node i+1.
func link(nodes []*Criterion, conns []Connective) *Criterion {
	var next *Criterion
	for i := len(nodes) - 1; i >= 0; i-- {
		n := *nodes[i]
		n.next, n.connective = next, None
		if next != nil {
			n.connective = conns[i]
		}
		next = &n
	}
	return next
}

// Chain returns the field-name chain of a leaf.
func (c *Criterion) Chain() []string { return slices.Clone(c.chain) }

// Prefix returns the field-name chain without its last element.
func (c *Criterion) Prefix() []string {
	if len(c.chain) == 0 {
		return nil
	}
	return slices.Clone(c.chain[:len(c.chain)-1])
}

// Op returns the operator of a leaf.
func (c *Criterion) Op() Operator { return c.op }

// Value returns the compared value of a leaf.
func (c *Criterion) Value() any { return c.value }

// Ref returns the other field of a field-to-field comparison.
func (c *Criterion) Ref() ([]string, bool) {
	return slices.Clone(c.ref), c.ref != nil
}

// ContentBaseType returns the type set by OfType, or "".
func (c *Criterion) ContentBaseType() string { return c.baseType }

// Connective returns the connective joining the criterion to Next.
func (c *Criterion) Connective() Connective { return c.connective }

// Sub returns the sub-chain of a group.
func (c *Criterion) Sub() *Criterion { return c.sub }

// Next returns the next sibling in the chain.
func (c *Criterion) Next() *Criterion { return c.next }

// IsGroup reports if the criterion is a parenthesized group.
func (c *Criterion) IsGroup() bool { return c.sub != nil }

// IsNullComparison reports if the leaf compares with NULL.
func (c *Criterion) IsNullComparison() bool {
	return c.sub == nil && c.ref == nil && c.value == nil
}

// HasNullComparison reports if any leaf of the chain, groups included,
// compares with NULL.
func (c *Criterion) HasNullComparison() bool {
	for n := c; n != nil; n = n.next {
		if n.sub != nil && n.sub.HasNullComparison() || n.IsNullComparison() {
			return true
		}
	}
	return false
}

// Chains returns every field-name chain referenced by the filter, compared
// fields and other-field operands alike, in order of appearance.
func (c *Criterion) Chains() [][]string {
	var cs [][]string
	for n := c; n != nil; n = n.next {
		switch {
		case n.sub != nil:
			cs = append(cs, n.sub.Chains()...)
		default:
			cs = append(cs, slices.Clone(n.chain))
			if n.ref != nil {
				cs = append(cs, slices.Clone(n.ref))
			}
		}
	}
	return cs
}

// Sort returns an equivalent chain in which the leaves of every run of
// AND-connected siblings sharing a content type and field-chain prefix are
// adjacent, placed where the first of them appeared. OR boundaries are kept
// and groups are sorted recursively.
func (c *Criterion) Sort() *Criterion {
	if c == nil {
		return nil
	}
	nodes, conns := c.flatten()
	sorted := make([]*Criterion, 0, len(nodes))
	start := 0
	for i := range nodes {
		if nodes[i].sub != nil {
			g := *nodes[i]
			g.sub = g.sub.Sort()
			nodes[i] = &g
		}
		if conns[i] == And {
			continue
		}
		sorted = append(sorted, groupByPrefix(nodes[start:i+1])...)
		start = i + 1
	}
	// Runs are rebuilt in place, so connectives keep their positions.
	return link(sorted, conns)
}

// groupByPrefix stably orders a run so that leaves sharing a key are
// adjacent, keys ordered by first appearance.
func groupByPrefix(run []*Criterion) []*Criterion {
	first := make(map[string]int, len(run))
	for i, n := range run {
		if _, ok := first[n.sortKey()]; !ok {
			first[n.sortKey()] = i
		}
	}
	run = slices.Clone(run)
	slices.SortStableFunc(run, func(a, b *Criterion) int {
		return first[a.sortKey()] - first[b.sortKey()]
	})
	return run
}

func (c *Criterion) sortKey() string {
	if c.sub != nil {
		return "\x00"
	}
	return c.baseType + "\x00" + strings.Join(c.Prefix(), ".")
}

// Validate reports structural problems of the chain: empty groups or
// chains, unknown operators and unsupported value types.
func (c *Criterion) Validate() error {
	var errs []error
	for n := c; n != nil; n = n.next {
		if err := n.validateNode(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Criterion) validateNode() error {
	switch {
	case c.sub != nil && len(c.chain) > 0:
		return fmt.Errorf("querylanguage: criterion %s is both a group and a condition", c.chain)
	case c.sub != nil:
		return c.sub.Validate()
	case len(c.chain) == 0:
		return errors.New("querylanguage: empty group or field-name chain")
	case slices.Contains(c.chain, "") || slices.Contains(c.ref, ""):
		return fmt.Errorf("querylanguage: malformed field-name chain %q", strings.Join(c.chain, "."))
	case !c.op.Valid():
		return fmt.Errorf("querylanguage: %s: unknown operator %v", strings.Join(c.chain, "."), c.op)
	case c.ref != nil:
		return nil
	case !ValidValue(c.value):
		return fmt.Errorf("querylanguage: %s: unsupported value type %T", strings.Join(c.chain, "."), c.value)
	}
	if _, ok := c.value.(string); c.op.IsPattern() && !ok {
		return fmt.Errorf("querylanguage: %s: %v requires a string value", strings.Join(c.chain, "."), c.op)
	}
	return nil
}

// ValidValue reports if v can be compared with a field.
func ValidValue(v any) bool {
	switch v.(type) {
	case nil, bool, string, []byte, time.Time, uuid.UUID,
		int, int8, int16, int32, int64, uint8, uint16, uint32, float32, float64:
		return true
	default:
		return false
	}
}

// String returns the textual form of the chain.
func (c *Criterion) String() string {
	var b strings.Builder
	for n := c; n != nil; n = n.next {
		n.writeNode(&b)
		if n.next != nil {
			b.WriteString(" " + n.connective.String() + " ")
		}
	}
	return b.String()
}

func (c *Criterion) writeNode(b *strings.Builder) {
	if c.sub != nil {
		b.WriteString("(" + c.sub.String() + ")")
		return
	}
	name := strings.Join(c.chain, ".")
	if c.baseType != "" {
		name = c.baseType + "::" + name
	}
	operand := formatValue(c.value)
	if c.ref != nil {
		operand = strings.Join(c.ref, ".")
	}
	switch {
	case c.op.IsPattern(), c.op == Matches:
		fmt.Fprintf(b, "%s(%s, %s)", c.op.symbol(), name, operand)
	default:
		fmt.Fprintf(b, "%s %s %s", name, c.op.symbol(), operand)
	}
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(v)
	case time.Time:
		return strconv.Quote(v.Format(time.RFC3339Nano))
	case uuid.UUID:
		return strconv.Quote(v.String())
	case []byte:
		return fmt.Sprintf("0x%x", v)
	default:
		return fmt.Sprint(v)
	}
}

// SplitChain splits a dot-separated field-name chain.
func SplitChain(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}
