package schema

// Hierarchy is the precomputed supertype/subtype graph of a model.
// It is a plain value: views and resolvers fold over it instead of testing
// subclass relations at runtime.
type Hierarchy struct {
	super map[string]string
	subs  map[string][]string // direct subtypes in declaration order.
	roots []string
}

func newHierarchy(types []*Type) *Hierarchy {
	h := &Hierarchy{
		super: make(map[string]string, len(types)),
		subs:  make(map[string][]string, len(types)),
	}
	for _, t := range types {
		if t.Super == "" {
			h.roots = append(h.roots, t.Name)
			continue
		}
		h.super[t.Name] = t.Super
		h.subs[t.Super] = append(h.subs[t.Super], t.Name)
	}
	return h
}

// Super returns the direct supertype of a type.
func (h *Hierarchy) Super(name string) (string, bool) {
	s, ok := h.super[name]
	return s, ok
}

// Subtypes returns the direct subtypes of a type.
func (h *Hierarchy) Subtypes(name string) []string {
	return h.subs[name]
}

// Roots returns the types without a supertype, in declaration order.
func (h *Hierarchy) Roots() []string {
	return h.roots
}

// Ancestors returns the supertypes of a type, nearest first.
func (h *Hierarchy) Ancestors(name string) []string {
	var as []string
	for s, ok := h.super[name]; ok; s, ok = h.super[s] {
		as = append(as, s)
	}
	return as
}

// Descendants returns all subtypes of a type in depth-first pre-order,
// excluding the type itself.
func (h *Hierarchy) Descendants(name string) []string {
	var ds []string
	var walk func(string)
	walk = func(n string) {
		for _, s := range h.subs[n] {
			ds = append(ds, s)
			walk(s)
		}
	}
	walk(name)
	return ds
}

// IsA reports if sub equals super or descends from it.
func (h *Hierarchy) IsA(sub, super string) bool {
	if sub == super {
		return true
	}
	for s, ok := h.super[sub]; ok; s, ok = h.super[s] {
		if s == super {
			return true
		}
	}
	return false
}

// Root returns the root type of the hierarchy a type belongs to.
func (h *Hierarchy) Root(name string) string {
	for s, ok := h.super[name]; ok; s, ok = h.super[s] {
		name = s
	}
	return name
}
