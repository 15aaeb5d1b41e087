package model

import (
	"fmt"
	"time"

	"github.com/mountfs/mount/block"
)

// Object is the per-file metadata record attached to a data-link.
type Object struct {
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Properties map[string]Value
}

// reservedCreatedAt and reservedUpdatedAt are the two keys an object
// encoding reserves inside its flat structured map; user property names
// must not collide with them (Encode rejects a colliding property name).
const (
	reservedCreatedAt = "created_at"
	reservedUpdatedAt = "updated_at"
	legacyMetadataKey = "metadata"
)

// Encode canonically encodes the object: user properties flat-merged with
// the two reserved timestamp keys, per §4.3. New encodes always use this
// flat form — see DecodeObject for the legacy nested-metadata compatibility
// path encoders must never emit.
func (o Object) Encode() (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(o.Properties)+2)
	for k, v := range o.Properties {
		if k == reservedCreatedAt || k == reservedUpdatedAt {
			return nil, fmt.Errorf("model: object property %q collides with a reserved key", k)
		}
		iv, err := v.toInterface()
		if err != nil {
			return nil, block.EncodeError(err)
		}
		out[k] = iv
	}
	out[reservedCreatedAt] = o.CreatedAt.UnixNano()
	out[reservedUpdatedAt] = o.UpdatedAt.UnixNano()
	return out, nil
}

// DecodeObject reconstructs an Object from its structured map encoding.
// Accepts both the canonical flat form and the legacy form that nests user
// properties under a "metadata" submap (§9, "Object metadata
// compatibility") — decoders must accept both, encoders must emit only the
// flat form.
func DecodeObject(m map[string]interface{}) (Object, error) {
	o := Object{Properties: map[string]Value{}}

	if raw, ok := m[reservedCreatedAt]; ok {
		ns, err := asNanos(raw)
		if err != nil {
			return Object{}, block.DecodeError(err)
		}
		o.CreatedAt = time.Unix(0, ns).UTC()
	}
	if raw, ok := m[reservedUpdatedAt]; ok {
		ns, err := asNanos(raw)
		if err != nil {
			return Object{}, block.DecodeError(err)
		}
		o.UpdatedAt = time.Unix(0, ns).UTC()
	}

	if legacy, ok := m[legacyMetadataKey]; ok {
		props, err := asStringMap(legacy)
		if err != nil {
			return Object{}, block.DecodeError(err)
		}
		for k, v := range props {
			cv, err := valueFromInterface(v)
			if err != nil {
				return Object{}, block.DecodeError(err)
			}
			o.Properties[k] = cv
		}
		return o, nil
	}

	for k, v := range m {
		if k == reservedCreatedAt || k == reservedUpdatedAt {
			continue
		}
		cv, err := valueFromInterface(v)
		if err != nil {
			return Object{}, block.DecodeError(err)
		}
		o.Properties[k] = cv
	}
	return o, nil
}

func asNanos(raw interface{}) (int64, error) {
	switch t := raw.(type) {
	case int64:
		return t, nil
	case uint64:
		return int64(t), nil
	case int:
		return int64(t), nil
	case float64:
		return int64(t), nil
	default:
		return 0, fmt.Errorf("model: timestamp field has unexpected type %T", raw)
	}
}

func asStringMap(raw interface{}) (map[string]interface{}, error) {
	switch t := raw.(type) {
	case map[string]interface{}:
		return t, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, v := range t {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("model: non-string key in legacy metadata map")
			}
			out[ks] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("model: legacy metadata field has unexpected type %T", raw)
	}
}

// WithUpsert returns the object that results from upserting newProps over
// the (possibly absent) prior object at the same name: created_at is
// preserved from prior if it exists, updated_at is refreshed to now.
func WithUpsert(prior *Object, newProps map[string]Value, now time.Time) Object {
	created := now
	if prior != nil {
		created = prior.CreatedAt
	}
	return Object{CreatedAt: created, UpdatedAt: now, Properties: newProps}
}
