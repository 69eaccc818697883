package sqlquery

import (
	"strconv"
	"strings"

	"github.com/syssam/relmap"
	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/dialect/sql"
	"github.com/syssam/relmap/dialect/sql/sqlgraph"
	"github.com/syssam/relmap/querylanguage"
	"github.com/syssam/relmap/schema"
	"github.com/syssam/relmap/schema/field"
)

// Mode is the selection mode of a select.
type Mode uint8

// Selection modes.
const (
	ModeDefault Mode = iota
	ModeDistinct
	ModeCount
	ModeSum
	ModeAvg
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeDefault:
		return "default"
	case ModeDistinct:
		return "distinct"
	case ModeCount:
		return "count"
	case ModeSum:
		return "sum"
	case ModeAvg:
		return "avg"
	default:
		return "Mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// ParseMode parses a mode name, "" being ModeDefault.
func ParseMode(s string) (Mode, error) {
	for m := ModeDefault; m <= ModeAvg; m++ {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	if s == "" {
		return ModeDefault, nil
	}
	return 0, relmap.NewNotSupportedUsagePatternError("ParseMode", "unknown mode "+strconv.Quote(s))
}

func (m Mode) aggregate() bool {
	return m == ModeCount || m == ModeSum || m == ModeAvg
}

// JoinType selects the kind of joins emitted for a select.
type JoinType uint8

// Join types.
const (
	// JoinAuto uses LEFT OUTER joins when the filter compares with NULL or
	// is complemented, and INNER joins otherwise.
	JoinAuto JoinType = iota
	JoinInner
	JoinLeftOuter
)

func (t JoinType) keyword() string {
	if t == JoinLeftOuter {
		return "LEFT OUTER JOIN"
	}
	return "INNER JOIN"
}

// Select describes a select over the polymorphic view of a type.
type Select struct {
	// Root is the queried type.
	Root string
	// Columns are the selected field-name chains, every column of the root
	// view when empty. Required by ModeSum and ModeAvg.
	Columns []string
	Mode    Mode
	// FullText is a free-text query matched against FullTextColumns, or the
	// string fields of the root type when none are given.
	FullText        string
	FullTextColumns []string
	Filter          *querylanguage.Criterion
	// Complement selects the objects not matched by Filter.
	Complement bool
	// Sorts order row selects. They are ignored by aggregate modes.
	Sorts querylanguage.Sorts
	// ExtraFields are field-name chains to join even if nothing else
	// references them.
	ExtraFields []string
	JoinType    JoinType
	// Offset and Limit page row selects, Limit 0 meaning no limit.
	Offset int
	Limit  int
}

// SelectCompiler compiles selects.
type SelectCompiler struct {
	snap *schema.Snapshot
	cfg  Config
}

// NewSelectCompiler returns a select compiler over the given snapshot.
func NewSelectCompiler(snap *schema.Snapshot, cfg Config) *SelectCompiler {
	return &SelectCompiler{snap: snap, cfg: cfg}
}

// Compile compiles a select into a statement.
func (c *SelectCompiler) Compile(s Select) (sql.Statement, error) {
	if s.Offset < 0 || s.Limit < 0 {
		return sql.Statement{}, relmap.NewNotSupportedUsagePatternError("CompileSelect", "negative offset or limit")
	}
	if s.Mode.aggregate() && (s.Offset > 0 || s.Limit > 0) {
		return sql.Statement{}, relmap.NewNotSupportedUsagePatternError("CompileSelect", "aggregate selects cannot be paged")
	}
	if (s.Mode == ModeSum || s.Mode == ModeAvg) && len(s.Columns) == 0 {
		return sql.Statement{}, relmap.NewNotSupportedUsagePatternError("CompileSelect", s.Mode.String()+" needs at least one column")
	}
	jr, err := sqlgraph.NewJoinResolver(c.snap, s.Root)
	if err != nil {
		return sql.Statement{}, err
	}
	fc, err := NewFilterCompiler(jr, c.cfg)
	if err != nil {
		return sql.Statement{}, err
	}
	q := &selectState{SelectCompiler: c, s: s, jr: jr, fc: fc, conv: sql.NewFieldNameConverter(fc.cfg.Dialect)}
	return q.compile()
}

// selectState is the working state of one select compilation.
type selectState struct {
	*SelectCompiler
	s     Select
	jr    *sqlgraph.JoinResolver
	fc    *FilterCompiler
	conv  sql.FieldNameConverter
	where []string
	order []string // ORDER BY expressions.
	cols  []column
}

type column struct {
	expr  string
	alias string // Output name, "" to keep the column name.
	ref   sqlgraph.Column
}

func (q *selectState) compile() (sql.Statement, error) {
	filter := q.s.Filter.Sort()
	switch {
	case filter != nil:
		if err := q.compileFilter(filter); err != nil {
			return sql.Statement{}, err
		}
	case q.s.Complement:
		// Every row matches an empty filter.
		q.where = append(q.where, "1=0")
	}
	if !q.s.Mode.aggregate() {
		for _, sc := range q.s.Sorts {
			col, err := q.jr.Resolve(sc.Chain)
			if err != nil {
				return sql.Statement{}, err
			}
			expr := q.conv.Qualify(col.Alias, col.Name)
			if sc.Direction == querylanguage.Descending {
				expr += " DESC"
			}
			q.order = append(q.order, expr)
		}
	}
	for _, chain := range q.s.ExtraFields {
		if _, err := q.jr.Resolve(querylanguage.SplitChain(chain)); err != nil {
			return sql.Statement{}, err
		}
	}
	for _, chain := range q.s.Columns {
		split := querylanguage.SplitChain(chain)
		col, err := q.jr.Resolve(split)
		if err != nil {
			return sql.Statement{}, err
		}
		cl := column{expr: q.conv.Qualify(col.Alias, col.Name), ref: col}
		if len(split) > 1 {
			cl.alias = strings.Join(split, "_")
		}
		q.cols = append(q.cols, cl)
	}
	if q.s.FullText != "" {
		if err := q.fullText(); err != nil {
			return sql.Statement{}, err
		}
	}
	kind := q.s.JoinType
	if kind == JoinAuto {
		kind = JoinInner
		if q.s.Complement || filter.HasNullComparison() {
			kind = JoinLeftOuter
		}
	}
	var b strings.Builder
	switch q.s.Mode {
	case ModeSum, ModeAvg:
		q.writeAggregate(&b, kind)
	default:
		q.writeRows(&b, kind)
	}
	return sql.Statement{Text: b.String(), Parameters: q.fc.Parameters()}, nil
}

func (q *selectState) compileFilter(filter *querylanguage.Criterion) error {
	if !q.s.Complement {
		frag, err := q.fc.Compile(filter)
		if err != nil {
			return err
		}
		q.where = append(q.where, frag.Text)
		return nil
	}
	// The complement selects every root object whose Id is not matched by
	// the filter, compiled in a nested select with its own joins.
	probe, err := sqlgraph.ResolveJoins(q.snap, q.s.Root, filter, nil, nil, q.fc.cfg.Subqueries)
	if err != nil {
		return err
	}
	opt := sqlgraph.WithRootAlias("")
	if len(probe) > 0 {
		opt = sqlgraph.WithAliasPrefix("c")
	}
	inner, err := sqlgraph.NewJoinResolver(q.snap, q.s.Root, opt)
	if err != nil {
		return err
	}
	ifc, err := q.fc.fork(inner)
	if err != nil {
		return err
	}
	frag, err := ifc.Compile(filter)
	if err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString(q.conv.Qualify(q.jr.RootAlias(), schema.IDColumn))
	b.WriteString(" NOT IN (SELECT ")
	b.WriteString(q.conv.Qualify(inner.RootAlias(), schema.IDColumn))
	b.WriteString(" FROM ")
	b.WriteString(q.conv.Escape(schema.ViewName(inner.Root().Table)))
	if a := inner.RootAlias(); a != "" {
		b.WriteString(" " + a)
	}
	kind := JoinInner
	if filter.HasNullComparison() {
		kind = JoinLeftOuter
	}
	writeJoins(&b, q.conv, kind, inner.Joins())
	b.WriteString(" WHERE ")
	b.WriteString(frag.Text)
	b.WriteString(")")
	q.where = append(q.where, b.String())
	return nil
}

// fullText matches the query against the full-text columns, with the
// dialect full-text predicate, or a LIKE on every column on SQLite.
func (q *selectState) fullText() error {
	chains := q.s.FullTextColumns
	if len(chains) == 0 {
		for _, f := range q.snap.Fields(q.s.Root) {
			if f.Kind == field.KindElement && f.Type == field.TypeString {
				chains = append(chains, f.Name)
			}
		}
	}
	if len(chains) == 0 {
		return relmap.NewNotSupportedUsagePatternError("CompileSelect", "full-text query on a type without string fields")
	}
	cols := make([]string, len(chains))
	for i, chain := range chains {
		col, err := q.jr.Resolve(querylanguage.SplitChain(chain))
		if err != nil {
			return err
		}
		cols[i] = q.conv.Qualify(col.Alias, col.Name)
	}
	var (
		text  string
		value = q.s.FullText
		d     = q.fc.cfg.Dialect
	)
	if d == dialect.SQLite {
		value = q.fc.like.Contains(value)
	}
	ph, err := q.fc.Bind(value, field.TypeString)
	if err != nil {
		return err
	}
	list := strings.Join(cols, ", ")
	switch d {
	case dialect.SQLServer:
		text = "CONTAINS((" + list + "), " + ph + ")"
	case dialect.Postgres:
		text = "to_tsvector(concat_ws(' ', " + list + ")) @@ plainto_tsquery(" + ph + ")"
	case dialect.MySQL:
		text = "MATCH (" + list + ") AGAINST (" + ph + " IN NATURAL LANGUAGE MODE)"
	default:
		likes := make([]string, len(cols))
		for i, col := range cols {
			likes[i] = col + " LIKE " + ph + " " + q.fc.like.Clause()
		}
		text = "(" + strings.Join(likes, " OR ") + ")"
	}
	q.where = append(q.where, text)
	return nil
}

func (q *selectState) writeRows(b *strings.Builder, kind JoinType) {
	paged := q.s.Offset > 0 || q.s.Limit > 0
	if q.fc.cfg.Dialect == dialect.SQLServer && paged && len(q.order) == 0 {
		q.order = append(q.order, q.conv.Qualify(q.jr.RootAlias(), schema.IDColumn))
	}
	b.WriteString("SELECT ")
	switch q.s.Mode {
	case ModeCount:
		if len(q.jr.Joins()) > 0 {
			b.WriteString("COUNT(DISTINCT " + q.conv.Qualify(q.jr.RootAlias(), schema.IDColumn) + ")")
		} else {
			b.WriteString("COUNT(*)")
		}
	case ModeDistinct:
		b.WriteString("DISTINCT ")
		b.WriteString(strings.Join(q.distinctList(), ", "))
	default:
		b.WriteString(strings.Join(q.selectList(), ", "))
	}
	q.writeFrom(b, kind)
	q.writeWhere(b)
	if q.s.Mode == ModeCount {
		return
	}
	if len(q.order) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(q.order, ", "))
	}
	q.writePage(b)
}

func (q *selectState) selectList() []string {
	if len(q.cols) == 0 {
		return []string{q.jr.RootAlias() + ".*"}
	}
	list := make([]string, len(q.cols))
	for i, c := range q.cols {
		list[i] = c.expr
		if c.alias != "" {
			list[i] += " AS " + q.conv.Escape(c.alias)
		}
	}
	return list
}

// distinctList returns the select list extended with the ordering columns
// it lacks, so rows differing only in them are not merged.
func (q *selectState) distinctList() []string {
	list := q.selectList()
	has := make(map[string]bool, len(list))
	for _, c := range q.cols {
		has[c.expr] = true
	}
	for _, o := range q.order {
		expr := strings.TrimSuffix(o, " DESC")
		if len(q.cols) == 0 && strings.HasPrefix(expr, q.jr.RootAlias()+".") {
			continue
		}
		if !has[expr] {
			has[expr] = true
			list = append(list, expr)
		}
	}
	return list
}

func (q *selectState) writeFrom(b *strings.Builder, kind JoinType) {
	b.WriteString(" FROM ")
	b.WriteString(q.conv.Escape(schema.ViewName(q.jr.Root().Table)))
	b.WriteString(" " + q.jr.RootAlias())
	writeJoins(b, q.conv, kind, q.jr.Joins())
}

func (q *selectState) writeWhere(b *strings.Builder) {
	if len(q.where) == 0 {
		return
	}
	b.WriteString(" WHERE ")
	if len(q.where) == 1 {
		b.WriteString(q.where[0])
		return
	}
	for i, w := range q.where {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString("(" + w + ")")
	}
}

func (q *selectState) writePage(b *strings.Builder) {
	var (
		offset = strconv.Itoa(q.s.Offset)
		limit  = strconv.Itoa(q.s.Limit)
	)
	switch q.fc.cfg.Dialect {
	case dialect.SQLServer:
		if q.s.Offset == 0 && q.s.Limit == 0 {
			return
		}
		b.WriteString(" OFFSET " + offset + " ROWS")
		if q.s.Limit > 0 {
			b.WriteString(" FETCH NEXT " + limit + " ROWS ONLY")
		}
	case dialect.Postgres:
		if q.s.Limit > 0 {
			b.WriteString(" LIMIT " + limit)
		}
		if q.s.Offset > 0 {
			b.WriteString(" OFFSET " + offset)
		}
	default:
		// MySQL and SQLite only accept OFFSET after a LIMIT.
		if q.s.Limit == 0 && q.s.Offset == 0 {
			return
		}
		if q.s.Limit == 0 {
			limit = "-1"
			if q.fc.cfg.Dialect == dialect.MySQL {
				limit = "18446744073709551615"
			}
		}
		b.WriteString(" LIMIT " + limit)
		if q.s.Offset > 0 {
			b.WriteString(" OFFSET " + offset)
		}
	}
}

// writeAggregate wraps the grouped base select as a derived table and
// applies the aggregate to each column. The base select groups by the Id of
// the row each column belongs to, so values repeated by joins count once.
func (q *selectState) writeAggregate(b *strings.Builder, kind JoinType) {
	fn := "SUM"
	if q.s.Mode == ModeAvg {
		fn = "AVG"
	}
	var (
		keys  []string
		seen  = make(map[string]bool)
		inner []string
		outer []string
	)
	for _, c := range q.cols {
		for _, k := range q.rowKeys(c.ref) {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	for i, k := range keys {
		inner = append(inner, k+" AS k"+strconv.Itoa(i+1))
	}
	group := append([]string(nil), keys...)
	for i, c := range q.cols {
		name := "c" + strconv.Itoa(i+1)
		inner = append(inner, c.expr+" AS "+name)
		group = append(group, c.expr)
		alias := c.alias
		if alias == "" {
			alias = c.ref.Name
		}
		outer = append(outer, fn+"(t."+name+") AS "+q.conv.Escape(alias))
	}
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(outer, ", "))
	b.WriteString(" FROM (SELECT ")
	b.WriteString(strings.Join(inner, ", "))
	q.writeFrom(b, kind)
	q.writeWhere(b)
	b.WriteString(" GROUP BY ")
	b.WriteString(strings.Join(group, ", "))
	b.WriteString(") t")
}

// rowKeys returns the columns identifying the row holding a column: the Id
// of object views, and the parent and position of element sub-tables.
func (q *selectState) rowKeys(c sqlgraph.Column) []string {
	if c.Name == schema.ValueColumn && c.Path != nil && c.Path.Terminal().Field.Kind == field.KindElementCollection {
		return []string{
			q.conv.Qualify(c.Alias, schema.ParentIDColumn),
			q.conv.Qualify(c.Alias, schema.PositionColumn),
		}
	}
	return []string{q.conv.Qualify(c.Alias, schema.IDColumn)}
}

// JoinClause renders joins as the JOIN clauses following a FROM.
func JoinClause(conv sql.FieldNameConverter, kind JoinType, joins []sqlgraph.Join) string {
	var b strings.Builder
	writeJoins(&b, conv, kind, joins)
	return b.String()
}

func writeJoins(b *strings.Builder, conv sql.FieldNameConverter, kind JoinType, joins []sqlgraph.Join) {
	for _, j := range joins {
		b.WriteString(" " + kind.keyword() + " ")
		b.WriteString(conv.Escape(j.Table))
		b.WriteString(" " + j.Alias + " ON ")
		n := 0
		for _, p := range j.FieldPredicates {
			if n > 0 {
				b.WriteString(" AND ")
			}
			b.WriteString(conv.Qualify(p.Left.Alias, p.Left.Column) + "=" + conv.Qualify(p.Right.Alias, p.Right.Column))
			n++
		}
		for _, p := range j.StringPredicates {
			if n > 0 {
				b.WriteString(" AND ")
			}
			b.WriteString(conv.Qualify(p.Column.Alias, p.Column.Column) + "=" + quoteName(p.Value))
			n++
		}
	}
}
