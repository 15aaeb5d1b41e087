package model

import (
	"fmt"

	"github.com/mountfs/mount/block"
	"github.com/mountfs/mount/merrors"
)

// PropertyType enumerates the value kinds a schema can require, matching
// Value's own tag set minus the distinction between absent and null.
type PropertyType int

const (
	PropertyString PropertyType = iota
	PropertyInteger
	PropertyFloat
	PropertyBool
	PropertyNull
	PropertyMap
	PropertyLink
)

func (t PropertyType) wire() string {
	switch t {
	case PropertyString:
		return "string"
	case PropertyInteger:
		return "integer"
	case PropertyFloat:
		return "float"
	case PropertyBool:
		return "bool"
	case PropertyNull:
		return "null"
	case PropertyMap:
		return "map"
	case PropertyLink:
		return "link"
	default:
		return "unknown"
	}
}

func propertyTypeFromWire(s string) (PropertyType, error) {
	switch s {
	case "string":
		return PropertyString, nil
	case "integer":
		return PropertyInteger, nil
	case "float":
		return PropertyFloat, nil
	case "bool":
		return PropertyBool, nil
	case "null":
		return PropertyNull, nil
	case "map":
		return PropertyMap, nil
	case "link":
		return PropertyLink, nil
	default:
		return 0, fmt.Errorf("model: unknown schema property type %q", s)
	}
}

func (v Value) matchesType(t PropertyType) bool {
	switch t {
	case PropertyString:
		return v.Kind == ValueString
	case PropertyInteger:
		return v.Kind == ValueInt
	case PropertyFloat:
		return v.Kind == ValueFloat
	case PropertyBool:
		return v.Kind == ValueBool
	case PropertyNull:
		return v.Kind == ValueNull
	case PropertyMap:
		return v.Kind == ValueMap
	case PropertyLink:
		return v.Kind == ValueLink
	default:
		return false
	}
}

// PropertySchema describes one validated property.
type PropertySchema struct {
	Type        PropertyType
	Required    bool
	Description string
}

// Schema is a validation descriptor attached at a node, validating objects
// under data-links of that node (or, when inherited, of its descendants
// until overridden).
type Schema struct {
	Properties map[string]PropertySchema
}

// Validate checks obj's properties against the schema: every required
// property must be present with the declared type; present properties of
// the wrong type fail regardless of required-ness.
func (s Schema) Validate(obj Object) error {
	for name, ps := range s.Properties {
		v, ok := obj.Properties[name]
		if !ok {
			if ps.Required {
				return merrors.New(merrors.ErrorCodeSchemaValidation).WithPath(name).WithCause(
					fmt.Errorf("missing required property %q", name))
			}
			continue
		}
		if !v.matchesType(ps.Type) {
			return merrors.New(merrors.ErrorCodeSchemaValidation).WithPath(name).WithCause(
				fmt.Errorf("property %q has type %s, want %s", name, v.Kind, ps.Type.wire()))
		}
	}
	return nil
}

func (k ValueKind) String() string {
	switch k {
	case ValueNull:
		return "null"
	case ValueString:
		return "string"
	case ValueInt:
		return "integer"
	case ValueFloat:
		return "float"
	case ValueBool:
		return "bool"
	case ValueMap:
		return "map"
	case ValueLink:
		return "link"
	default:
		return "unknown"
	}
}

// wirePropertySchema mirrors the encoded shape of one property nested under
// the node's reserved ".schema" entry.
type wirePropertySchema struct {
	Type        string `refmt:"type"`
	Required    bool   `refmt:"required"`
	Description string `refmt:"description,omitempty"`
}

// Encode produces the generic map[string]interface{} this package's callers
// (node.go) nest under the ".schema" reserved key.
func (s Schema) Encode() (map[string]interface{}, error) {
	props := make(map[string]interface{}, len(s.Properties))
	for name, ps := range s.Properties {
		props[name] = map[string]interface{}{
			"type":        ps.Type.wire(),
			"required":    ps.Required,
			"description": ps.Description,
		}
	}
	return map[string]interface{}{"properties": props}, nil
}

// DecodeSchema reconstructs a Schema from its structured map encoding.
func DecodeSchema(m map[string]interface{}) (Schema, error) {
	raw, ok := m["properties"]
	if !ok {
		return Schema{Properties: map[string]PropertySchema{}}, nil
	}
	propsRaw, err := asStringMap(raw)
	if err != nil {
		return Schema{}, block.DecodeError(err)
	}
	props := make(map[string]PropertySchema, len(propsRaw))
	for name, v := range propsRaw {
		entry, err := asStringMap(v)
		if err != nil {
			return Schema{}, block.DecodeError(err)
		}
		typeStr, _ := entry["type"].(string)
		t, err := propertyTypeFromWire(typeStr)
		if err != nil {
			return Schema{}, block.DecodeError(err)
		}
		required, _ := entry["required"].(bool)
		description, _ := entry["description"].(string)
		props[name] = PropertySchema{Type: t, Required: required, Description: description}
	}
	return Schema{Properties: props}, nil
}
