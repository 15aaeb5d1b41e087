package model

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"github.com/mountfs/mount/block"
)

// ValueKind tags the scalar shape carried by a Value, matching §3's
// "mapping from string to tagged scalar (string/integer/float/bool/null/
// nested map/link)".
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueString
	ValueInt
	ValueFloat
	ValueBool
	ValueMap
	ValueLink
)

// Value is a tagged scalar: exactly one of its fields is meaningful,
// selected by Kind. Implementations must pattern-match on Kind rather than
// rely on zero-value ambiguity (a nil Map and an absent Map both decode to
// the zero value, but only ValueMap makes Map meaningful).
type Value struct {
	Kind ValueKind
	Str  string
	Int  int64
	Flt  float64
	Bool bool
	Map  map[string]Value
	Link block.Identifier
}

func String(s string) Value           { return Value{Kind: ValueString, Str: s} }
func Int(i int64) Value               { return Value{Kind: ValueInt, Int: i} }
func Float(f float64) Value           { return Value{Kind: ValueFloat, Flt: f} }
func Bool(b bool) Value               { return Value{Kind: ValueBool, Bool: b} }
func Null() Value                     { return Value{Kind: ValueNull} }
func Map(m map[string]Value) Value    { return Value{Kind: ValueMap, Map: m} }
func Link(id block.Identifier) Value  { return Value{Kind: ValueLink, Link: id} }

// toInterface produces the generic Go value refmt/cbornode will canonically
// encode: plain scalars, a nested map, or a cid.Cid for links (go-ipld-cbor
// registers cid.Cid as a CBOR tag-42 byte string, which is how this format
// represents an embedded link without us hand-rolling the tag).
func (v Value) toInterface() (interface{}, error) {
	switch v.Kind {
	case ValueNull:
		return nil, nil
	case ValueString:
		return v.Str, nil
	case ValueInt:
		return v.Int, nil
	case ValueFloat:
		return v.Flt, nil
	case ValueBool:
		return v.Bool, nil
	case ValueMap:
		out := make(map[string]interface{}, len(v.Map))
		for k, child := range v.Map {
			iv, err := child.toInterface()
			if err != nil {
				return nil, err
			}
			out[k] = iv
		}
		return out, nil
	case ValueLink:
		return v.Link.CID(), nil
	default:
		return nil, fmt.Errorf("model: value has unknown kind %d", v.Kind)
	}
}

// valueFromInterface reconstructs a Value from whatever shape refmt produced
// while decoding a generic CBOR map entry.
func valueFromInterface(x interface{}) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint64:
		return Int(int64(t)), nil
	case float64:
		return Float(t), nil
	case cid.Cid:
		return Link(block.FromCID(t)), nil
	case map[string]interface{}:
		out := make(map[string]Value, len(t))
		for k, child := range t {
			cv, err := valueFromInterface(child)
			if err != nil {
				return Value{}, err
			}
			out[k] = cv
		}
		return Map(out), nil
	case map[interface{}]interface{}:
		out := make(map[string]Value, len(t))
		for k, child := range t {
			ks, ok := k.(string)
			if !ok {
				return Value{}, fmt.Errorf("model: non-string map key in value")
			}
			cv, err := valueFromInterface(child)
			if err != nil {
				return Value{}, err
			}
			out[ks] = cv
		}
		return Map(out), nil
	default:
		return Value{}, fmt.Errorf("model: cannot represent %T as a Value", x)
	}
}
