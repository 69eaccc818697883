package compiler

import (
	"context"
	"log/slog"

	"github.com/syssam/relmap/dialect/sql"
	sqlschema "github.com/syssam/relmap/dialect/sql/schema"
	"github.com/syssam/relmap/dialect/sql/sqlgraph"
	"github.com/syssam/relmap/dialect/sql/sqlquery"
	"github.com/syssam/relmap/privacy"
	ql "github.com/syssam/relmap/querylanguage"
	"github.com/syssam/relmap/schema"
)

// Compiler compiles queries over the types of one snapshot.
type Compiler struct {
	snap   *schema.Snapshot
	cfg    sqlquery.Config
	log    *slog.Logger
	policy *privacy.Policy
}

// New returns a compiler over the given snapshot.
func New(snap *schema.Snapshot, opts ...Option) (*Compiler, error) {
	if snap == nil {
		return nil, NewConfigError("Snapshot", nil, "snapshot cannot be nil")
	}
	c := &Compiler{snap: snap, log: slog.Default()}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.cfg.Dialect == "" {
		if err := WithDialect("sqlserver")(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Snapshot returns the snapshot the compiler is bound to.
func (c *Compiler) Snapshot() *schema.Snapshot { return c.snap }

// Dialect returns the dialect of the emitted SQL.
func (c *Compiler) Dialect() string { return c.cfg.Dialect }

// Where is a compiled WHERE clause. Its text references the view of the
// root type as r0 and the joined views by the aliases of Joins.
type Where struct {
	sql.Statement
	Joins      []sqlgraph.Join
	Subqueries *sqlgraph.SubqueryCollection
}

// CompileWhere compiles the sorted filter into the text of a WHERE clause
// over the root type.
func (c *Compiler) CompileWhere(root string, filter *ql.Criterion) (*Where, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	jr, err := sqlgraph.NewJoinResolver(c.snap, root)
	if err != nil {
		return nil, err
	}
	fc, err := sqlquery.NewFilterCompiler(jr, c.cfg)
	if err != nil {
		return nil, err
	}
	frag, err := fc.Compile(filter.Sort())
	if err != nil {
		return nil, err
	}
	w := &Where{Statement: frag.Statement(), Joins: jr.Joins(), Subqueries: fc.Subqueries()}
	c.log.Debug("compiled where",
		"root", root,
		"text", w.Text,
		"params", len(w.Parameters),
		"joins", len(w.Joins),
		"subqueries", w.Subqueries.Len(),
	)
	return w, nil
}

// CompileSelect compiles a select over the view of s.Root.
func (c *Compiler) CompileSelect(s sqlquery.Select) (sql.Statement, error) {
	return c.compileSelect(c.cfg, s)
}

// CompileSelectContext compiles a select restricted by the policy of the
// compiler for the viewer of ctx. Restricted selects compile collection
// conditions as subqueries so that permission groups never multiply rows.
// Without a policy it is CompileSelect.
func (c *Compiler) CompileSelectContext(ctx context.Context, a privacy.Access, s sqlquery.Select) (sql.Statement, error) {
	if c.policy == nil {
		return c.CompileSelect(s)
	}
	filter, err := c.policy.Restrict(ctx, a, s.Filter)
	if err != nil {
		return sql.Statement{}, err
	}
	s.Filter = filter
	cfg := c.cfg
	cfg.Subqueries = true
	return c.compileSelect(cfg, s)
}

func (c *Compiler) compileSelect(cfg sqlquery.Config, s sqlquery.Select) (sql.Statement, error) {
	if err := s.Filter.Validate(); err != nil {
		return sql.Statement{}, err
	}
	st, err := sqlquery.NewSelectCompiler(c.snap, cfg).Compile(s)
	if err != nil {
		return sql.Statement{}, err
	}
	c.log.Debug("compiled select",
		"root", s.Root,
		"mode", s.Mode.String(),
		"text", st.Text,
		"params", len(st.Parameters),
	)
	return st, nil
}

// ResolveJoins returns the joins a select over the root type needs for the
// filter, the sorts and the extra field-name chains. Fresh calls with the
// same input return equal joins.
func (c *Compiler) ResolveJoins(root string, filter *ql.Criterion, sorts ql.Sorts, extra []string) ([]sqlgraph.Join, error) {
	chains := make([][]string, len(extra))
	for i, e := range extra {
		chains[i] = ql.SplitChain(e)
	}
	return sqlgraph.ResolveJoins(c.snap, root, filter.Sort(), sorts, chains, c.cfg.Subqueries)
}

// ResolveSubqueries returns the subqueries of the filter leaves. It is
// empty unless the compiler compiles subqueries.
func (c *Compiler) ResolveSubqueries(root string, filter *ql.Criterion) (*sqlgraph.SubqueryCollection, error) {
	if !c.cfg.Subqueries {
		r, err := sqlgraph.NewSubqueryResolver(c.snap, root)
		if err != nil {
			return nil, err
		}
		return r.Subqueries(), nil
	}
	return sqlgraph.ResolveSubqueries(c.snap, root, filter)
}

// BuildViewDefinitions returns the validated views of every type, ordered
// table views first, then sub-table views and relation views.
func (c *Compiler) BuildViewDefinitions() ([]*sqlschema.View, error) {
	vs, err := sqlschema.BuildViews(c.snap)
	if err != nil {
		return nil, err
	}
	all := vs.All()
	res := sqlschema.ValidateViews(all, sqlschema.WithTables(sqlschema.Tables(c.snap)...))
	if res.HasWarnings() {
		c.log.Debug("view warnings", "warnings", len(res.Warnings))
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return all, nil
}
