package field

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// A Type is the value type of an element field or a query parameter.
type Type uint8

// List of field types.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeInt32
	TypeInt64
	TypeFloat64
	TypeString
	TypeTime
	TypeUUID
	TypeBytes
	TypeEnum
	endTypes
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeBool:    "bool",
	TypeInt32:   "int32",
	TypeInt64:   "int64",
	TypeFloat64: "float64",
	TypeString:  "string",
	TypeTime:    "time",
	TypeUUID:    "uuid",
	TypeBytes:   "bytes",
	TypeEnum:    "enum",
}

// String returns the string representation of a type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Valid reports if the given type if known type.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// Numeric reports if the given type is a numeric type.
func (t Type) Numeric() bool {
	return t == TypeInt32 || t == TypeInt64 || t == TypeFloat64
}

// Textual reports if values of the type are stored as character data
// and may be compared with LIKE.
func (t Type) Textual() bool {
	return t == TypeString || t == TypeEnum
}

// ParseType parses the string representation of a type. Matching is case
// insensitive and accepts a few common aliases ("int", "text", "guid").
func ParseType(s string) (Type, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "int":
		return TypeInt64, nil
	case "float", "double":
		return TypeFloat64, nil
	case "text":
		return TypeString, nil
	case "guid":
		return TypeUUID, nil
	case "datetime", "timestamp":
		return TypeTime, nil
	default:
		for t := TypeBool; t < endTypes; t++ {
			if typeNames[t] == v {
				return t, nil
			}
		}
	}
	return TypeInvalid, fmt.Errorf("field: unknown type %q", s)
}

// MarshalYAML implements yaml.Marshaler.
func (t Type) MarshalYAML() (any, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("field: cannot marshal invalid type %d", t)
	}
	return t.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Type) UnmarshalYAML(n *yaml.Node) error {
	v, err := ParseType(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*t = v
	return nil
}

// A Kind describes how a field is stored.
type Kind uint8

// List of field kinds.
const (
	KindElement Kind = iota
	KindElementCollection
	KindObject
	KindObjectCollection
	endKinds
)

var kindNames = [...]string{
	KindElement:           "element",
	KindElementCollection: "elements",
	KindObject:            "object",
	KindObjectCollection:  "objects",
}

// String returns the string representation of a kind.
func (k Kind) String() string {
	if k < endKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// IsObject reports if the kind references other persisted objects.
func (k Kind) IsObject() bool {
	return k == KindObject || k == KindObjectCollection
}

// IsCollection reports if the kind holds more than one value.
func (k Kind) IsCollection() bool {
	return k == KindElementCollection || k == KindObjectCollection
}

// ParseKind parses the string representation of a kind.
func ParseKind(s string) (Kind, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for k := KindElement; k < endKinds; k++ {
		if kindNames[k] == v {
			return k, nil
		}
	}
	return 0, fmt.Errorf("field: unknown kind %q", s)
}

// MarshalYAML implements yaml.Marshaler.
func (k Kind) MarshalYAML() (any, error) {
	return k.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (k *Kind) UnmarshalYAML(n *yaml.Node) error {
	v, err := ParseKind(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*k = v
	return nil
}
