package sqlquery

import (
	"fmt"
	"strings"

	"github.com/syssam/relmap"
	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/dialect/sql"
	"github.com/syssam/relmap/dialect/sql/sqlgraph"
	"github.com/syssam/relmap/querylanguage"
	"github.com/syssam/relmap/schema"
	"github.com/syssam/relmap/schema/field"
)

// Config holds the settings shared by the compilers of a statement.
type Config struct {
	// Dialect of the emitted SQL, SQL Server when empty.
	Dialect string
	// Subqueries compiles conditions on collections and relations-table
	// references as nested IN subqueries instead of joins.
	Subqueries bool
	// EscapeChar of LIKE patterns, sql.DefaultEscapeChar when zero.
	EscapeChar rune
}

func (c Config) dialect() string {
	if c.Dialect == "" {
		return dialect.SQLServer
	}
	return c.Dialect
}

// Fragment is a compiled WHERE clause and the parameters bound so far.
type Fragment struct {
	Text       string
	Parameters []sql.Parameter
}

// Statement returns the fragment as a statement.
func (f Fragment) Statement() sql.Statement {
	return sql.Statement{Text: f.Text, Parameters: f.Parameters}
}

// params is the ordered parameter list of one statement, shared by the
// compilers of its nested selects.
type params struct {
	mapper sql.DataTypeMapper
	list   []sql.Parameter
}

func (p *params) add(v any, t field.Type) (sql.Parameter, error) {
	prm, err := p.mapper.CreateParameter(len(p.list)+1, v, t)
	if err != nil {
		return sql.Parameter{}, err
	}
	p.list = append(p.list, prm)
	return prm, nil
}

// FilterCompiler compiles filter chains queried on the root type of its
// join resolver.
type FilterCompiler struct {
	cfg    Config
	conv   sql.FieldNameConverter
	like   sql.LikeEscaper
	joins  *sqlgraph.JoinResolver
	subs   *sqlgraph.SubqueryResolver // Subqueries of compiled conditions.
	probe  *sqlgraph.SubqueryResolver // Classifies leaves.
	params *params
	open   *batch // Batch being buffered, nil between batches.
}

// NewFilterCompiler returns a compiler resolving chains with the given
// join resolver. Joins needed by the compiled conditions are added to it.
func NewFilterCompiler(joins *sqlgraph.JoinResolver, cfg Config) (*FilterCompiler, error) {
	d, err := dialect.Parse(cfg.dialect())
	if err != nil {
		return nil, err
	}
	cfg.Dialect = d
	return newFilterCompiler(joins, cfg, &params{mapper: sql.NewDataTypeMapper(cfg.Dialect)})
}

func newFilterCompiler(joins *sqlgraph.JoinResolver, cfg Config, p *params) (*FilterCompiler, error) {
	subs, err := sqlgraph.NewSubqueryResolver(joins.Snapshot(), joins.Root().Name)
	if err != nil {
		return nil, err
	}
	probe, err := sqlgraph.NewSubqueryResolver(joins.Snapshot(), joins.Root().Name)
	if err != nil {
		return nil, err
	}
	return &FilterCompiler{
		cfg:    cfg,
		conv:   sql.NewFieldNameConverter(cfg.Dialect),
		like:   sql.NewLikeEscaper(cfg.EscapeChar),
		joins:  joins,
		subs:   subs,
		probe:  probe,
		params: p,
	}, nil
}

// fork returns a compiler for a nested select that continues the parameter
// numbering of f.
func (f *FilterCompiler) fork(joins *sqlgraph.JoinResolver) (*FilterCompiler, error) {
	return newFilterCompiler(joins, f.cfg, f.params)
}

// Joins returns the join resolver of the compiler.
func (f *FilterCompiler) Joins() *sqlgraph.JoinResolver { return f.joins }

// Subqueries returns the subqueries resolved while compiling.
func (f *FilterCompiler) Subqueries() *sqlgraph.SubqueryCollection { return f.subs.Subqueries() }

// Parameters returns the parameters bound so far, in ordinal order.
func (f *FilterCompiler) Parameters() []sql.Parameter {
	return append([]sql.Parameter(nil), f.params.list...)
}

// Bind adds a parameter and returns its placeholder.
func (f *FilterCompiler) Bind(v any, t field.Type) (string, error) {
	p, err := f.params.add(v, t)
	if err != nil {
		return "", err
	}
	return sql.Placeholder(f.cfg.Dialect, p), nil
}

// Compile compiles a filter chain into the text of a WHERE clause. Callers
// should pass a sorted chain, see querylanguage.Criterion.Sort, so that
// conditions on the same parent share one batch.
func (f *FilterCompiler) Compile(c *querylanguage.Criterion) (Fragment, error) {
	var b strings.Builder
	if err := f.appendChain(&b, c); err != nil {
		f.open = nil
		return Fragment{}, err
	}
	return Fragment{Text: b.String(), Parameters: f.Parameters()}, nil
}

// AppendCondition adds a leaf to the batch being compiled. Conditions are
// only batched by Compile, so a call from outside a compilation fails.
func (f *FilterCompiler) AppendCondition(c *querylanguage.Criterion) error {
	if f.open == nil {
		return relmap.NewNotSupportedUsagePatternError("AppendCondition", "conditions are appended by Compile while a batch is open")
	}
	l, err := f.classify(c)
	if err != nil {
		return err
	}
	if !f.open.accepts(l) {
		return relmap.NewNotSupportedUsagePatternError("AppendCondition", fmt.Sprintf("condition %s does not belong to the open batch", c))
	}
	f.open.add(l)
	return nil
}

// leaf is a classified filter leaf.
type leaf struct {
	c      *querylanguage.Criterion
	sq     *sqlgraph.Subquery
	useSub bool
	key    string
}

// batch is a run of AND-connected leaves on the same parent, emitted as
// one unit.
type batch struct {
	key    string
	sq     *sqlgraph.Subquery // Set on the subquery path.
	null   bool
	leaves []*querylanguage.Criterion
	// terms holds the subquery of each leaf on the subquery path. Leaves
	// share the levels of sq but keep their own terminal column.
	terms []*sqlgraph.Subquery
	conn  querylanguage.Connective // Connective following the last leaf.
}

func (b *batch) accepts(l leaf) bool {
	if len(b.leaves) == 0 {
		return b.key == l.key
	}
	return b.conn == querylanguage.And && b.key == l.key && !b.null && !l.c.IsNullComparison()
}

func (b *batch) add(l leaf) {
	b.leaves = append(b.leaves, l.c)
	b.terms = append(b.terms, l.sq)
	b.conn = l.c.Connective()
}

func (f *FilterCompiler) classify(c *querylanguage.Criterion) (leaf, error) {
	sq, err := f.probe.Resolve(c.ContentBaseType(), c.Chain())
	if err != nil {
		return leaf{}, err
	}
	l := leaf{c: c, sq: sq, useSub: sqlgraph.UseSubquery(c, sq.Path, f.cfg.Subqueries)}
	if l.useSub {
		if l.sq, err = f.subs.Resolve(c.ContentBaseType(), c.Chain()); err != nil {
			return leaf{}, err
		}
	}
	l.key = sqlgraph.ChainKey(c.ContentBaseType(), c.Prefix())
	if sq.IsForSubTable {
		l.key += "/" + sq.SubTableView
	}
	if !l.useSub {
		l.key = "join:" + l.key
	}
	return l, nil
}

func (f *FilterCompiler) appendChain(b *strings.Builder, c *querylanguage.Criterion) error {
	var (
		first   = true
		pending querylanguage.Connective
	)
	emit := func(text string, next querylanguage.Connective) {
		if !first {
			b.WriteString(connective(pending))
		}
		b.WriteString(text)
		first, pending = false, next
	}
	flush := func() error {
		if f.open == nil {
			return nil
		}
		bt := f.open
		f.open = nil
		text, err := f.render(bt)
		if err != nil {
			return err
		}
		emit(text, bt.conn)
		return nil
	}
	for n := c; n != nil; n = n.Next() {
		if n.IsGroup() {
			if err := flush(); err != nil {
				return err
			}
			var sub strings.Builder
			if err := f.appendChain(&sub, n.Sub()); err != nil {
				return err
			}
			emit("("+sub.String()+")", n.Connective())
			continue
		}
		l, err := f.classify(n)
		if err != nil {
			return err
		}
		if f.open != nil && !f.open.accepts(l) {
			if err := flush(); err != nil {
				return err
			}
		}
		if f.open == nil {
			f.open = &batch{key: l.key, null: n.IsNullComparison()}
			if l.useSub {
				f.open.sq = l.sq
			}
		}
		f.open.add(l)
	}
	return flush()
}

func connective(c querylanguage.Connective) string {
	if c == querylanguage.Or {
		return " OR "
	}
	return " AND "
}

func (f *FilterCompiler) render(bt *batch) (string, error) {
	if bt.sq != nil {
		return f.renderSubquery(bt)
	}
	conds := make([]string, 0, len(bt.leaves))
	for _, c := range bt.leaves {
		col, err := f.joins.ResolveOfType(c.ContentBaseType(), c.Chain())
		if err != nil {
			return "", err
		}
		var other string
		if ref, ok := c.Ref(); ok {
			rc, err := f.joins.ResolveOfType(c.ContentBaseType(), ref)
			if err != nil {
				return "", err
			}
			other = f.conv.Qualify(rc.Alias, rc.Name)
		}
		cond, err := f.condition(f.conv.Qualify(col.Alias, col.Name), col.Type, c, other, false)
		if err != nil {
			return "", err
		}
		conds = append(conds, cond)
	}
	return strings.Join(conds, " AND "), nil
}

// renderSubquery emits one nested IN level per hop, the outermost level
// qualified by the root alias. A NULL equality is written as the absence of
// any non-NULL value, since the rows holding the value may not exist.
func (f *FilterCompiler) renderSubquery(bt *batch) (string, error) {
	var (
		b       strings.Builder
		sq      = bt.sq
		levels  = sq.ChildQueries
		column  = sq.Column
		typ     = sq.Type
		first   = bt.leaves[0]
		negate  = bt.null && first.Op() == querylanguage.IsEqualTo
		alias   = f.joins.RootAlias()
		in      = " IN ("
		closing int
	)
	if len(bt.leaves) == 1 && first.Op() == querylanguage.IsEqualTo && first.Value() != nil && sq.ReferenceLevel() {
		last := levels[len(levels)-1]
		levels, column, typ = levels[:len(levels)-1], last.Field.Name, field.TypeUUID
	}
	if negate {
		in = " NOT IN ("
	}
	id := f.conv.Escape(schema.IDColumn)
	for _, cq := range levels {
		view := f.conv.Escape(cq.InternalNameOfContainer)
		if cq.IsForInlineRelation {
			b.WriteString(f.conv.Qualify(alias, cq.Column()) + in + "SELECT " + id + " FROM " + view + " WHERE ")
			closing++
		} else {
			b.WriteString(f.conv.Qualify(alias, schema.IDColumn) + in +
				"SELECT " + f.conv.Escape(schema.ParentIDColumn) +
				" FROM " + f.conv.Escape(schema.RelationsTable) +
				" WHERE " + f.conv.Escape(schema.ParentFieldColumn) + "=" + quoteName(cq.Field.Name) +
				" AND " + f.conv.Escape(schema.ChildIDColumn) + " IN (SELECT " + id + " FROM " + view + " WHERE ")
			closing += 2
		}
		alias, in = "", " IN ("
	}
	if sq.IsForSubTable {
		b.WriteString(f.conv.Qualify(alias, schema.IDColumn) + in +
			"SELECT " + f.conv.Escape(schema.ParentIDColumn) + " FROM " + f.conv.Escape(sq.SubTableView) + " WHERE ")
		closing++
		alias = ""
	}
	for i, c := range bt.leaves {
		if i > 0 {
			b.WriteString(" AND ")
			column, typ = bt.terms[i].Column, bt.terms[i].Type
		}
		cond, err := f.condition(f.conv.Qualify(alias, column), typ, c, "", negate)
		if err != nil {
			return "", err
		}
		b.WriteString(cond)
	}
	b.WriteString(strings.Repeat(")", closing))
	return b.String(), nil
}

var comparison = map[querylanguage.Operator]string{
	querylanguage.IsEqualTo:              "=",
	querylanguage.IsNotEqualTo:           "<>",
	querylanguage.IsGreaterThan:          ">",
	querylanguage.IsGreaterThanOrEqualTo: ">=",
	querylanguage.IsLessThan:             "<",
	querylanguage.IsLessThanOrEqualTo:    "<=",
}

// condition renders one comparison of col, a column holding values of type
// t, against the value of c or the other column. invert turns a NULL
// equality into its negation.
func (f *FilterCompiler) condition(col string, t field.Type, c *querylanguage.Criterion, other string, invert bool) (string, error) {
	op, v := c.Op(), c.Value()
	sym, isComparison := comparison[op]
	switch {
	case other != "":
		if !isComparison {
			return "", relmap.NewUnsupportedOperatorError(op.String(), "", "fields can only be compared with comparison operators")
		}
		return col + sym + other, nil
	case v == nil:
		if op != querylanguage.IsEqualTo && op != querylanguage.IsNotEqualTo {
			return "", relmap.NewUnsupportedOperatorError(op.String(), "", "cannot compare with NULL")
		}
		if (op == querylanguage.IsEqualTo) != invert {
			return col + " IS NULL", nil
		}
		return col + " IS NOT NULL", nil
	}
	if bv, ok := v.(bool); ok {
		lit, _ := sql.Literal(f.cfg.Dialect, bv)
		switch op {
		case querylanguage.IsEqualTo:
			return col + "=" + lit, nil
		case querylanguage.IsNotEqualTo:
			return "(" + col + "<>" + lit + " OR " + col + " IS NULL)", nil
		default:
			return "", relmap.NewUnsupportedOperatorError(op.String(), "", "booleans only compare for equality")
		}
	}
	switch op {
	case querylanguage.Contains, querylanguage.StartsWith, querylanguage.EndsWith:
		s, ok := v.(string)
		if !ok {
			return "", relmap.NewUnsupportedOperatorError(op.String(), "", fmt.Sprintf("requires a string value, got %T", v))
		}
		var pattern string
		switch op {
		case querylanguage.Contains:
			pattern = f.like.Contains(s)
		case querylanguage.StartsWith:
			pattern = f.like.HasPrefix(s)
		default:
			pattern = f.like.HasSuffix(s)
		}
		ph, err := f.Bind(pattern, field.TypeString)
		if err != nil {
			return "", err
		}
		return col + " LIKE " + ph + " " + f.like.Clause(), nil
	case querylanguage.Matches:
		var regexp string
		switch f.cfg.Dialect {
		case dialect.Postgres:
			regexp = " ~ "
		case dialect.MySQL:
			regexp = " REGEXP "
		default:
			return "", relmap.NewUnsupportedOperatorError(op.String(), f.cfg.Dialect, "no regular expression operator")
		}
		ph, err := f.Bind(v, field.TypeString)
		if err != nil {
			return "", err
		}
		return col + regexp + ph, nil
	case querylanguage.IsNotEqualTo:
		ph, err := f.Bind(v, t)
		if err != nil {
			return "", err
		}
		if t.Textual() {
			return "COALESCE(" + col + ",'')<>" + ph, nil
		}
		return "(" + col + "<>" + ph + " OR " + col + " IS NULL)", nil
	}
	if !isComparison {
		return "", relmap.NewUnsupportedOperatorError(op.String(), "", "unknown operator")
	}
	ph, err := f.Bind(v, t)
	if err != nil {
		return "", err
	}
	return col + sym + ph, nil
}

// quoteName renders a field or type name as a string literal.
func quoteName(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
