package querylanguage

import "fmt"

// An Operator compares a field with a value or another field.
type Operator uint8

// Relational operators.
const (
	IsEqualTo Operator = iota + 1
	IsNotEqualTo
	IsGreaterThan
	IsGreaterThanOrEqualTo
	IsLessThan
	IsLessThanOrEqualTo
	Contains
	StartsWith
	EndsWith
	Matches
	endOps
)

var opNames = [...]string{
	IsEqualTo:              "IsEqualTo",
	IsNotEqualTo:           "IsNotEqualTo",
	IsGreaterThan:          "IsGreaterThan",
	IsGreaterThanOrEqualTo: "IsGreaterThanOrEqualTo",
	IsLessThan:             "IsLessThan",
	IsLessThanOrEqualTo:    "IsLessThanOrEqualTo",
	Contains:               "Contains",
	StartsWith:             "StartsWith",
	EndsWith:               "EndsWith",
	Matches:                "Matches",
}

// String returns the operator name.
func (o Operator) String() string {
	if o.Valid() {
		return opNames[o]
	}
	return fmt.Sprintf("Operator(%d)", o)
}

// Valid reports if the operator is known.
func (o Operator) Valid() bool {
	return o > 0 && o < endOps
}

// IsPattern reports if the operator is translated to a LIKE pattern.
func (o Operator) IsPattern() bool {
	return o == Contains || o == StartsWith || o == EndsWith
}

// Negate returns the operator matching exactly the rows o does not match,
// ignoring NULLs. Pattern operators have no negation.
func (o Operator) Negate() (Operator, bool) {
	switch o {
	case IsEqualTo:
		return IsNotEqualTo, true
	case IsNotEqualTo:
		return IsEqualTo, true
	case IsGreaterThan:
		return IsLessThanOrEqualTo, true
	case IsGreaterThanOrEqualTo:
		return IsLessThan, true
	case IsLessThan:
		return IsGreaterThanOrEqualTo, true
	case IsLessThanOrEqualTo:
		return IsGreaterThan, true
	default:
		return 0, false
	}
}

// ParseOperator parses an operator name or its symbol ("==", "!=", ">",
// ">=", "<", "<=", "contains", "has_prefix", "has_suffix", "matches").
func ParseOperator(s string) (Operator, error) {
	for o := IsEqualTo; o < endOps; o++ {
		if opNames[o] == s || o.symbol() == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("querylanguage: unknown operator %q", s)
}

func (o Operator) symbol() string {
	switch o {
	case IsEqualTo:
		return "=="
	case IsNotEqualTo:
		return "!="
	case IsGreaterThan:
		return ">"
	case IsGreaterThanOrEqualTo:
		return ">="
	case IsLessThan:
		return "<"
	case IsLessThanOrEqualTo:
		return "<="
	case Contains:
		return "contains"
	case StartsWith:
		return "has_prefix"
	case EndsWith:
		return "has_suffix"
	case Matches:
		return "matches"
	default:
		return o.String()
	}
}

// A Connective joins a criterion to the next one in its chain.
type Connective uint8

// Connectives.
const (
	None Connective = iota
	And
	Or
)

// String returns the textual form of the connective.
func (c Connective) String() string {
	switch c {
	case And:
		return "&&"
	case Or:
		return "||"
	default:
		return ""
	}
}
