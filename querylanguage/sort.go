package querylanguage

import (
	"errors"
	"slices"
	"strings"
)

// Direction is the order of a sort key.
type Direction uint8

// Sort directions.
const (
	Ascending Direction = iota
	Descending
)

// String returns the SQL keyword of the direction.
func (d Direction) String() string {
	if d == Descending {
		return "DESC"
	}
	return "ASC"
}

// SortCriterion orders results by one field-name chain.
type SortCriterion struct {
	Chain     []string
	Direction Direction
}

// Asc returns an ascending sort on the dot-separated chain.
func Asc(chain string) SortCriterion {
	return SortCriterion{Chain: SplitChain(chain)}
}

// Desc returns a descending sort on the dot-separated chain.
func Desc(chain string) SortCriterion {
	return SortCriterion{Chain: SplitChain(chain), Direction: Descending}
}

// ParseSort parses "Chain", "+Chain" or "-Chain", the latter descending.
func ParseSort(s string) (SortCriterion, error) {
	s = strings.TrimSpace(s)
	var sc SortCriterion
	switch {
	case strings.HasPrefix(s, "-"):
		sc = Desc(s[1:])
	case strings.HasPrefix(s, "+"):
		sc = Asc(s[1:])
	default:
		sc = Asc(s)
	}
	if len(sc.Chain) == 0 || slices.Contains(sc.Chain, "") {
		return SortCriterion{}, errors.New("querylanguage: malformed sort " + strings.TrimSpace(s))
	}
	return sc, nil
}

// String returns the chain followed by the direction keyword.
func (s SortCriterion) String() string {
	return strings.Join(s.Chain, ".") + " " + s.Direction.String()
}

// Sorts is an ordered list of sort keys, the first taking precedence.
type Sorts []SortCriterion

// Chains returns the field-name chains of the sort keys.
func (s Sorts) Chains() [][]string {
	cs := make([][]string, 0, len(s))
	for _, sc := range s {
		cs = append(cs, slices.Clone(sc.Chain))
	}
	return cs
}
