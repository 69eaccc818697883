package sqlgraph

import (
	"github.com/syssam/relmap/querylanguage"
	"github.com/syssam/relmap/schema"
)

// UseSubquery reports if a filter leaf resolved to p is compiled as a
// subquery when subqueries are enabled. Field-to-field comparisons always
// take the join path.
func UseSubquery(c *querylanguage.Criterion, p *schema.Path, enabled bool) bool {
	if !enabled {
		return false
	}
	if _, ok := c.Ref(); ok {
		return false
	}
	return RequiresSubquery(p)
}

// Leaves calls fn for every leaf of the filter, groups included, in order.
func Leaves(c *querylanguage.Criterion, fn func(*querylanguage.Criterion) error) error {
	for n := c; n != nil; n = n.Next() {
		var err error
		if n.IsGroup() {
			err = Leaves(n.Sub(), fn)
		} else {
			err = fn(n)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ResolveJoins resolves the joins needed by the join-path leaves of a
// filter, the sort keys and extra field-name chains, in that order. Fresh
// calls with the same input return equal joins.
func ResolveJoins(snap *schema.Snapshot, root string, filter *querylanguage.Criterion, sorts querylanguage.Sorts, extra [][]string, subqueries bool) ([]Join, error) {
	r, err := NewJoinResolver(snap, root)
	if err != nil {
		return nil, err
	}
	if err := r.ResolveFilter(filter, subqueries); err != nil {
		return nil, err
	}
	for _, chain := range append(sorts.Chains(), extra...) {
		if _, err := r.Resolve(chain); err != nil {
			return nil, err
		}
	}
	return r.Joins(), nil
}

// ResolveFilter resolves the chains of every join-path leaf of the filter.
func (r *JoinResolver) ResolveFilter(filter *querylanguage.Criterion, subqueries bool) error {
	probe, err := NewSubqueryResolver(r.snap, r.root.Name)
	if err != nil {
		return err
	}
	return Leaves(filter, func(c *querylanguage.Criterion) error {
		sq, err := probe.Resolve(c.ContentBaseType(), c.Chain())
		if err != nil {
			return err
		}
		if UseSubquery(c, sq.Path, subqueries) {
			return nil
		}
		if _, err := r.ResolveOfType(c.ContentBaseType(), c.Chain()); err != nil {
			return err
		}
		if ref, ok := c.Ref(); ok {
			if _, err := r.ResolveOfType(c.ContentBaseType(), ref); err != nil {
				return err
			}
		}
		return nil
	})
}

// ResolveSubqueries returns the subqueries of the filter leaves compiled as
// subqueries.
func ResolveSubqueries(snap *schema.Snapshot, root string, filter *querylanguage.Criterion) (*SubqueryCollection, error) {
	probe, err := NewSubqueryResolver(snap, root)
	if err != nil {
		return nil, err
	}
	r, err := NewSubqueryResolver(snap, root)
	if err != nil {
		return nil, err
	}
	err = Leaves(filter, func(c *querylanguage.Criterion) error {
		sq, err := probe.Resolve(c.ContentBaseType(), c.Chain())
		if err != nil || !UseSubquery(c, sq.Path, true) {
			return err
		}
		_, err = r.Resolve(c.ContentBaseType(), c.Chain())
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.Subqueries(), nil
}
