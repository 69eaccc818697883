package schema

import (
	"fmt"
	"slices"
	"strings"

	atlas "ariga.io/atlas/sql/schema"

	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/dialect/sql"
	"github.com/syssam/relmap/schema/field"
)

// ViewQuery returns the SELECT statement defining a view.
func ViewQuery(d string, v *View) (string, error) {
	d, err := dialect.Parse(d)
	if err != nil {
		return "", err
	}
	r := renderer{dialect: d, conv: sql.NewFieldNameConverter(d), mapper: sql.NewDataTypeMapper(d)}
	parts := make([]string, len(v.Unions))
	for i, u := range v.Unions {
		if parts[i], err = r.union(v, u); err != nil {
			return "", fmt.Errorf("dialect/sql/schema: view %s: %w", v.Name, err)
		}
	}
	return strings.Join(parts, "\nUNION ALL\n"), nil
}

// CreateViewSQL returns the statement creating a view.
func CreateViewSQL(d string, v *View) (string, error) {
	q, err := ViewQuery(d, v)
	if err != nil {
		return "", err
	}
	d, _ = dialect.Parse(d)
	return "CREATE VIEW " + sql.NewFieldNameConverter(d).Escape(v.Name) + " AS\n" + q, nil
}

// DropViewSQL returns the statement dropping a view if it exists.
func DropViewSQL(d string, v *View) (string, error) {
	d, err := dialect.Parse(d)
	if err != nil {
		return "", err
	}
	return "DROP VIEW IF EXISTS " + sql.NewFieldNameConverter(d).Escape(v.Name), nil
}

// CreateTableSQL returns the statement creating a storage table.
func CreateTableSQL(d string, t *Table) (string, error) {
	d, err := dialect.Parse(d)
	if err != nil {
		return "", err
	}
	var (
		b      strings.Builder
		conv   = sql.NewFieldNameConverter(d)
		mapper = sql.NewDataTypeMapper(d)
		pk     = make(map[string]bool, len(t.PrimaryKey))
	)
	for _, c := range t.PrimaryKey {
		pk[c] = true
	}
	b.WriteString("CREATE TABLE ")
	b.WriteString(conv.Escape(t.Name))
	b.WriteString(" (")
	for i, c := range t.Columns {
		typ, err := mapper.MapType(c.Type)
		if err != nil {
			return "", fmt.Errorf("dialect/sql/schema: table %s: %w", t.Name, err)
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(conv.Escape(c.Name))
		b.WriteByte(' ')
		b.WriteString(typ)
		if pk[c.Name] {
			b.WriteString(" NOT NULL")
		}
	}
	if len(t.PrimaryKey) > 0 {
		keys := make([]string, len(t.PrimaryKey))
		for i, c := range t.PrimaryKey {
			keys[i] = conv.Escape(c)
		}
		b.WriteString(", PRIMARY KEY (")
		b.WriteString(strings.Join(keys, ", "))
		b.WriteByte(')')
	}
	b.WriteByte(')')
	return b.String(), nil
}

type renderer struct {
	dialect string
	conv    sql.FieldNameConverter
	mapper  sql.DataTypeMapper
}

func (r renderer) union(v *View, u *Union) (string, error) {
	var b strings.Builder
	b.WriteString("SELECT ")
	for i, c := range v.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		name := r.conv.Escape(c.Name)
		if src, ok := u.Dynamic[c.Name]; ok {
			b.WriteString(r.conv.Escape(src))
			if src != c.Name {
				b.WriteString(" AS ")
				b.WriteString(name)
			}
			continue
		}
		if val, ok := u.Static[c.Name]; ok {
			lit, err := sql.Literal(r.dialect, val)
			if err != nil {
				return "", err
			}
			b.WriteString(lit)
		} else {
			typ, err := r.castType(c.Type)
			if err != nil {
				return "", err
			}
			b.WriteString("CAST(NULL AS " + typ + ")")
		}
		b.WriteString(" AS ")
		b.WriteString(name)
	}
	if u.Empty() {
		if r.dialect == dialect.MySQL {
			b.WriteString(" FROM DUAL")
		}
		b.WriteString(" WHERE 1=0")
		return b.String(), nil
	}
	b.WriteString(" FROM ")
	b.WriteString(r.conv.Escape(u.SourceTable))
	for i, p := range u.Filter {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		if err := r.predicate(&b, p); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func (r renderer) predicate(b *strings.Builder, p *Predicate) error {
	if len(p.Values) == 0 {
		b.WriteString("1=0")
		return nil
	}
	lits := make([]string, len(p.Values))
	for i, v := range p.Values {
		lit, err := sql.Literal(r.dialect, v)
		if err != nil {
			return err
		}
		lits[i] = lit
	}
	b.WriteString(r.conv.Escape(p.Column))
	if len(lits) == 1 {
		b.WriteByte('=')
		b.WriteString(lits[0])
		return nil
	}
	b.WriteString(" IN (")
	b.WriteString(strings.Join(lits, ", "))
	b.WriteByte(')')
	return nil
}

// mysqlCasts holds the CAST targets of MySQL, which differ from its column
// types.
var mysqlCasts = map[field.Type]string{
	field.TypeBool:    "SIGNED",
	field.TypeInt32:   "SIGNED",
	field.TypeInt64:   "SIGNED",
	field.TypeFloat64: "DOUBLE",
	field.TypeString:  "CHAR",
	field.TypeTime:    "DATETIME(6)",
	field.TypeUUID:    "CHAR(36)",
	field.TypeBytes:   "BINARY",
	field.TypeEnum:    "CHAR(255)",
}

func (r renderer) castType(t field.Type) (string, error) {
	if r.dialect != dialect.MySQL {
		return r.mapper.MapType(t)
	}
	typ, ok := mysqlCasts[t]
	if !ok {
		return "", fmt.Errorf("no mysql cast for %s", t)
	}
	return typ, nil
}

// ToAtlas returns the atlas schema describing the given tables and views,
// as consumed by atlas based migration tooling.
func ToAtlas(d, name string, tables []*Table, views []*View) (*atlas.Schema, error) {
	d, err := dialect.Parse(d)
	if err != nil {
		return nil, err
	}
	var (
		s      = atlas.New(name)
		mapper = sql.NewDataTypeMapper(d)
	)
	for _, t := range tables {
		at := atlas.NewTable(t.Name)
		pk := make([]*atlas.Column, 0, len(t.PrimaryKey))
		for _, c := range t.Columns {
			ac, err := atlasColumn(mapper, c)
			if err != nil {
				return nil, fmt.Errorf("dialect/sql/schema: table %s: %w", t.Name, err)
			}
			key := slices.Contains(t.PrimaryKey, c.Name)
			if key {
				pk = append(pk, ac)
			}
			at.AddColumns(ac.SetNull(!key))
		}
		if len(pk) > 0 {
			at.SetPrimaryKey(atlas.NewPrimaryKey(pk...))
		}
		s.AddTables(at)
	}
	for _, v := range views {
		q, err := ViewQuery(d, v)
		if err != nil {
			return nil, err
		}
		av := atlas.NewView(v.Name, q)
		for _, c := range v.Columns {
			ac, err := atlasColumn(mapper, c)
			if err != nil {
				return nil, fmt.Errorf("dialect/sql/schema: view %s: %w", v.Name, err)
			}
			av.AddColumns(ac.SetNull(true))
		}
		s.AddViews(av)
	}
	return s, nil
}

func atlasColumn(m sql.DataTypeMapper, c *Column) (*atlas.Column, error) {
	typ, err := m.MapType(c.Type)
	if err != nil {
		return nil, err
	}
	var t atlas.Type
	switch c.Type {
	case field.TypeBool:
		t = &atlas.BoolType{T: typ}
	case field.TypeInt32, field.TypeInt64:
		t = &atlas.IntegerType{T: typ}
	case field.TypeFloat64:
		t = &atlas.FloatType{T: typ}
	case field.TypeTime:
		t = &atlas.TimeType{T: typ}
	case field.TypeUUID:
		t = &atlas.UUIDType{T: typ}
	case field.TypeBytes:
		t = &atlas.BinaryType{T: typ}
	default:
		t = &atlas.StringType{T: typ}
	}
	return atlas.NewColumn(c.Name).SetType(t), nil
}
