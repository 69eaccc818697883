package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/syssam/relmap/dialect/sql/sqlquery"
	"github.com/syssam/relmap/privacy"
	ql "github.com/syssam/relmap/querylanguage"
)

// Query is a select declared as a YAML document:
//
//	root: Book
//	columns: [Title, Author.Name]
//	filter:
//	  - {field: Author.Name, op: "==", value: Ann}
//	  - {field: PublishedYear, op: ">", value: 2000}
//	  - or: true
//	    group:
//	      - {field: Tags.Name, op: contains, value: x}
//	sort: [-PublishedYear]
type Query struct {
	// Name identifies the document in errors, the file path when loaded
	// with LoadQuery.
	Name            string   `yaml:"-"`
	Root            string   `yaml:"root"`
	Columns         []string `yaml:"columns,omitempty"`
	Mode            string   `yaml:"mode,omitempty"`
	FullText        string   `yaml:"fullText,omitempty"`
	FullTextColumns []string `yaml:"fullTextColumns,omitempty"`
	Filter          []Term   `yaml:"filter,omitempty"`
	Complement      bool     `yaml:"complement,omitempty"`
	Sort            []string `yaml:"sort,omitempty"`
	Extra           []string `yaml:"extra,omitempty"`
	// Join is one of auto, inner or left.
	Join   string `yaml:"join,omitempty"`
	Offset int    `yaml:"offset,omitempty"`
	Limit  int    `yaml:"limit,omitempty"`
	// Access is the access the select is restricted for, read or write.
	Access string `yaml:"access,omitempty"`
}

// Term is one condition or group of a query filter. Terms are joined by
// AND unless Or is set, in which case the term is joined to the previous
// one by OR.
type Term struct {
	Field string `yaml:"field,omitempty"`
	Op    string `yaml:"op,omitempty"`
	Value any    `yaml:"value,omitempty"`
	// Ref names a field compared with Field instead of Value.
	Ref    string `yaml:"ref,omitempty"`
	OfType string `yaml:"ofType,omitempty"`
	Or     bool   `yaml:"or,omitempty"`
	Group  []Term `yaml:"group,omitempty"`
}

// ParseQuery decodes a query document. Unknown keys are rejected.
func ParseQuery(r io.Reader) (*Query, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	q := &Query{}
	if err := dec.Decode(q); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &QueryError{Cause: errors.New("empty document")}
		}
		return nil, &QueryError{Cause: err}
	}
	if q.Root == "" {
		return nil, &QueryError{Cause: errors.New("missing root")}
	}
	return q, nil
}

// LoadQuery reads the query document at path.
func LoadQuery(path string) (*Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("relmap: read query: %w", err)
	}
	q, err := ParseQuery(bytes.NewReader(data))
	if err != nil {
		var qe *QueryError
		if errors.As(err, &qe) {
			qe.Name = path
		}
		return nil, err
	}
	q.Name = path
	return q, nil
}

// Criterion returns the filter of the query, nil when it has none.
func (q *Query) Criterion() (*ql.Criterion, error) {
	c, err := chain(q.Filter, "filter")
	if err != nil {
		var qe *QueryError
		if errors.As(err, &qe) {
			qe.Name = q.Name
		}
		return nil, err
	}
	return c, nil
}

// Select returns the select described by the query.
func (q *Query) Select() (sqlquery.Select, error) {
	filter, err := q.Criterion()
	if err != nil {
		return sqlquery.Select{}, err
	}
	mode, err := sqlquery.ParseMode(q.Mode)
	if err != nil {
		return sqlquery.Select{}, &QueryError{Name: q.Name, Cause: err}
	}
	s := sqlquery.Select{
		Root:            q.Root,
		Columns:         q.Columns,
		Mode:            mode,
		FullText:        q.FullText,
		FullTextColumns: q.FullTextColumns,
		Filter:          filter,
		Complement:      q.Complement,
		ExtraFields:     q.Extra,
		Offset:          q.Offset,
		Limit:           q.Limit,
	}
	for _, raw := range q.Sort {
		sc, err := ql.ParseSort(raw)
		if err != nil {
			return sqlquery.Select{}, &QueryError{Name: q.Name, Cause: err}
		}
		s.Sorts = append(s.Sorts, sc)
	}
	switch strings.ToLower(q.Join) {
	case "", "auto":
		s.JoinType = sqlquery.JoinAuto
	case "inner":
		s.JoinType = sqlquery.JoinInner
	case "left":
		s.JoinType = sqlquery.JoinLeftOuter
	default:
		return sqlquery.Select{}, &QueryError{Name: q.Name, Cause: fmt.Errorf("unknown join type %q", q.Join)}
	}
	return s, nil
}

// AccessKind returns the access the query is restricted for.
func (q *Query) AccessKind() (privacy.Access, error) {
	a, err := privacy.ParseAccess(q.Access)
	if err != nil {
		return a, &QueryError{Name: q.Name, Cause: err}
	}
	return a, nil
}

func chain(terms []Term, path string) (*ql.Criterion, error) {
	var c *ql.Criterion
	for i, t := range terms {
		pos := path + "[" + strconv.Itoa(i) + "]"
		n, err := t.criterion(pos)
		if err != nil {
			return nil, err
		}
		if t.Or && c != nil {
			c = c.Or(n)
		} else {
			c = c.And(n)
		}
	}
	return c, nil
}

func (t Term) criterion(pos string) (*ql.Criterion, error) {
	if len(t.Group) > 0 {
		if t.Field != "" || t.Op != "" {
			return nil, &QueryError{Term: pos, Cause: errors.New("a group cannot have a field or operator")}
		}
		sub, err := chain(t.Group, pos+".group")
		if err != nil {
			return nil, err
		}
		return ql.Group(sub), nil
	}
	if t.Field == "" {
		return nil, &QueryError{Term: pos, Cause: errors.New("missing field")}
	}
	op, err := ql.ParseOperator(t.Op)
	if err != nil {
		return nil, &QueryError{Term: pos, Cause: err}
	}
	var c *ql.Criterion
	if t.Ref != "" {
		c = ql.WhereField(t.Field, op, t.Ref)
	} else {
		c = ql.Where(t.Field, op, t.Value)
	}
	if t.OfType != "" {
		c = c.OfType(t.OfType)
	}
	if err := c.Validate(); err != nil {
		return nil, &QueryError{Term: pos, Cause: err}
	}
	return c, nil
}
