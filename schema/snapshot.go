package schema

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/syssam/relmap"
	"github.com/syssam/relmap/schema/field"
)

// ContainerInfo pairs a queryable type with its physical table.
type ContainerInfo struct {
	InternalTableName string `yaml:"table" msgpack:"table"`
	TypeName          string `yaml:"type" msgpack:"type"`
}

// Snapshot is an immutable, validated type model.
type Snapshot struct {
	generation uint64
	types      []*Type
	byName     map[string]*Type
	tables     map[string]string
	fields     map[string][]*Field          // all fields, inherited first.
	lookup     map[string]map[string]*Field // type -> field name -> field.
	hierarchy  *Hierarchy
}

// NewSnapshot validates the given types and returns a snapshot of them.
// Types are copied; later changes to the arguments are not observed.
func NewSnapshot(types ...*Type) (*Snapshot, error) {
	s := &Snapshot{
		types:  make([]*Type, 0, len(types)),
		byName: make(map[string]*Type, len(types)),
		tables: make(map[string]string, len(types)),
		fields: make(map[string][]*Field, len(types)),
		lookup: make(map[string]map[string]*Field, len(types)),
	}
	var errs []error
	usedTables := make(map[string]string, len(types))
	for _, t := range types {
		if t == nil {
			errs = append(errs, errors.New("schema: nil type"))
			continue
		}
		c := copyType(t)
		if c.Name == "" {
			errs = append(errs, errors.New("schema: type without a name"))
			continue
		}
		if _, ok := s.byName[c.Name]; ok {
			errs = append(errs, fmt.Errorf("schema: duplicate type %s", c.Name))
			continue
		}
		if c.Table == "" {
			c.Table = DefaultTableName(c.Name)
		}
		if prev, ok := usedTables[strings.ToLower(c.Table)]; ok {
			errs = append(errs, fmt.Errorf("schema: types %s and %s share container %s", prev, c.Name, c.Table))
		}
		usedTables[strings.ToLower(c.Table)] = c.Name
		s.types = append(s.types, c)
		s.byName[c.Name] = c
		s.tables[c.Name] = c.Table
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	for _, t := range s.types {
		errs = append(errs, s.checkType(t)...)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	s.hierarchy = newHierarchy(s.types)
	for _, t := range s.types {
		if err := s.collectFields(t); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return s, nil
}

// MustSnapshot is like NewSnapshot but panics on error.
func MustSnapshot(types ...*Type) *Snapshot {
	s, err := NewSnapshot(types...)
	if err != nil {
		panic(err)
	}
	return s
}

func copyType(t *Type) *Type {
	c := *t
	c.Fields = make([]*Field, len(t.Fields))
	for i, f := range t.Fields {
		if f == nil {
			continue
		}
		fc := *f
		c.Fields[i] = &fc
	}
	return &c
}

func (s *Snapshot) checkType(t *Type) []error {
	var errs []error
	if t.Super != "" {
		if _, ok := s.byName[t.Super]; !ok {
			errs = append(errs, fmt.Errorf("schema: type %s: unknown supertype %s", t.Name, t.Super))
		}
		seen := map[string]bool{t.Name: true}
		for n := t.Super; n != ""; {
			if seen[n] {
				errs = append(errs, fmt.Errorf("schema: type %s: inheritance cycle through %s", t.Name, n))
				break
			}
			seen[n] = true
			sup, ok := s.byName[n]
			if !ok {
				break
			}
			n = sup.Super
		}
	}
	for i, f := range t.Fields {
		if f == nil {
			errs = append(errs, fmt.Errorf("schema: type %s: nil field at index %d", t.Name, i))
			continue
		}
		errs = append(errs, s.checkField(t, f)...)
	}
	return errs
}

func (s *Snapshot) checkField(t *Type, f *Field) []error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("schema: field %s.%s: %s", t.Name, f.Name, fmt.Sprintf(format, args...)))
	}
	switch {
	case !isIdent(f.Name):
		fail("invalid field name")
	case f.Name == IDColumn, f.Name == TypeNameColumn, strings.HasSuffix(f.Name, TypeNameSuffix):
		fail("reserved field name")
	}
	switch f.Kind {
	case field.KindElement, field.KindElementCollection:
		if !f.Type.Valid() {
			fail("missing or invalid value type")
		}
		if f.Target != "" || f.Inline {
			fail("element fields cannot declare a target or be inline")
		}
	case field.KindObject, field.KindObjectCollection:
		if _, ok := s.byName[f.Target]; !ok {
			fail("unknown target type %q", f.Target)
		}
		if f.Kind == field.KindObjectCollection && f.Inline {
			fail("object collections cannot be inline")
		}
	default:
		fail("unknown kind %s", f.Kind)
	}
	return errs
}

func (s *Snapshot) collectFields(t *Type) error {
	chain := append([]string{t.Name}, s.hierarchy.Ancestors(t.Name)...)
	var (
		all    []*Field
		lookup = make(map[string]*Field)
	)
	for i := len(chain) - 1; i >= 0; i-- {
		for _, f := range s.byName[chain[i]].Fields {
			if prev, ok := lookup[f.Name]; ok {
				return fmt.Errorf("schema: field %s.%s redeclares inherited field %s", t.Name, f.Name, prev.Name)
			}
			lookup[f.Name] = f
			all = append(all, f)
		}
	}
	s.fields[t.Name] = all
	s.lookup[t.Name] = lookup
	return nil
}

// Generation returns the generation counter assigned by the Store that
// published the snapshot, or zero.
func (s *Snapshot) Generation() uint64 {
	return s.generation
}

// Types returns all types in declaration order.
func (s *Snapshot) Types() []*Type {
	return slices.Clone(s.types)
}

// Type returns the type with the given name.
func (s *Snapshot) Type(name string) (*Type, bool) {
	t, ok := s.byName[name]
	return t, ok
}

// Hierarchy returns the supertype/subtype graph.
func (s *Snapshot) Hierarchy() *Hierarchy {
	return s.hierarchy
}

// GetInternalNameOfContainer resolves a type to its container name.
func (s *Snapshot) GetInternalNameOfContainer(typeName string) (string, bool) {
	n, ok := s.tables[typeName]
	return n, ok
}

// ContainerInfos returns the containers of all types in declaration order.
func (s *Snapshot) ContainerInfos() []ContainerInfo {
	infos := make([]ContainerInfo, 0, len(s.types))
	for _, t := range s.types {
		infos = append(infos, ContainerInfo{InternalTableName: t.Table, TypeName: t.Name})
	}
	return infos
}

// Fields returns the fields of a type, inherited fields first.
func (s *Snapshot) Fields(typeName string) []*Field {
	return s.fields[typeName]
}

// Field returns the field with the given name declared on a type or one of
// its supertypes.
func (s *Snapshot) Field(typeName, name string) (*Field, bool) {
	f, ok := s.lookup[typeName][name]
	return f, ok
}

// Concrete returns the non-abstract types among a type and its descendants.
func (s *Snapshot) Concrete(typeName string) []*Type {
	var ts []*Type
	if t, ok := s.byName[typeName]; ok && !t.Abstract {
		ts = append(ts, t)
	}
	for _, d := range s.hierarchy.Descendants(typeName) {
		if t := s.byName[d]; !t.Abstract {
			ts = append(ts, t)
		}
	}
	return ts
}

// Hop is one link of a resolved field-name chain.
type Hop struct {
	Owner *Type  // Type the field was looked up on.
	Field *Field // Resolved field.
}

// Path is a field-name chain resolved against a snapshot. A chain ending in
// an object field is normalized to end in the referenced object's Id.
type Path struct {
	Root  *Type
	Chain []string
	Hops  []Hop
}

// Terminal returns the last hop of the path.
func (p *Path) Terminal() Hop {
	return p.Hops[len(p.Hops)-1]
}

// Links returns the object hops leading to the terminal.
func (p *Path) Links() []Hop {
	return p.Hops[:len(p.Hops)-1]
}

// Key returns the dot-separated chain.
func (p *Path) Key() string {
	return strings.Join(p.Chain, ".")
}

// Inline reports if the path reaches its terminal through inline object
// fields only and the terminal is a column of the last owner's table.
func (p *Path) Inline() bool {
	for _, h := range p.Links() {
		if !h.Field.IsInlineObject() {
			return false
		}
	}
	return p.Terminal().Field.Kind == field.KindElement
}

// ReferenceID reports if the path ends in the Id of an inline object, which
// equals the reference column on the previous owner.
func (p *Path) ReferenceID() bool {
	if len(p.Hops) < 2 || p.Terminal().Field != IDField {
		return false
	}
	return p.Hops[len(p.Hops)-2].Field.IsInlineObject()
}

// ResolveChain resolves a field-name chain starting at the given type.
func (s *Snapshot) ResolveChain(typeName string, chain []string) (*Path, error) {
	root, ok := s.byName[typeName]
	if !ok {
		return nil, relmap.NewSchemaResolutionError(typeName, chain, "unknown type")
	}
	if len(chain) == 0 {
		return nil, relmap.NewSchemaResolutionError(typeName, chain, "empty field-name chain")
	}
	p := &Path{Root: root, Chain: append(make([]string, 0, len(chain)+1), chain...)}
	owner := root
	for i, name := range chain {
		f, err := s.resolveField(owner, name)
		if err != nil {
			return nil, relmap.NewSchemaResolutionError(owner.Name, chain, "%v", err)
		}
		p.Hops = append(p.Hops, Hop{Owner: owner, Field: f})
		last := i == len(chain)-1
		switch {
		case f.Kind.IsObject():
			owner = s.byName[f.Target]
			if last {
				p.Chain = append(p.Chain, IDColumn)
				p.Hops = append(p.Hops, Hop{Owner: owner, Field: IDField})
			}
		case !last:
			return nil, relmap.NewSchemaResolutionError(owner.Name, chain, "field %q is not an object field", name)
		}
	}
	return p, nil
}

func (s *Snapshot) resolveField(owner *Type, name string) (*Field, error) {
	switch name {
	case IDColumn:
		return IDField, nil
	case TypeNameColumn:
		return TypeNameField, nil
	}
	if f, ok := s.lookup[owner.Name][name]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("no field %q", name)
}
