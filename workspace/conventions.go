package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/mountfs/mount/model"
)

// Special file conventions inside a tracked working directory, interpreted
// by the client rather than the core (§6.3).
const (
	SchemaFileName = ".schema"
	ObjDirName     = ".obj"
)

// IsSchemaFile reports whether rel (a workspace-relative, slash-separated
// path) names a schema convention file, returning the mount path of the
// directory it installs a schema at.
func IsSchemaFile(rel string) (mountPath string, ok bool) {
	if filepath.Base(rel) != SchemaFileName {
		return "", false
	}
	dir := strings.TrimSuffix(rel, SchemaFileName)
	dir = strings.TrimSuffix(dir, "/")
	return "/" + dir, true
}

// IsObjectFile reports whether rel names an object convention file
// (<dir>/.obj/.<name>.json), returning the mount path of the data entry it
// annotates.
func IsObjectFile(rel string) (mountPath string, ok bool) {
	dir, file := filepath.Split(rel)
	dir = strings.TrimSuffix(dir, "/")
	if filepath.Base(dir) != ObjDirName {
		return "", false
	}
	if !strings.HasPrefix(file, ".") || !strings.HasSuffix(file, ".json") {
		return "", false
	}
	name := strings.TrimSuffix(strings.TrimPrefix(file, "."), ".json")
	if name == "" {
		return "", false
	}
	parent := strings.TrimSuffix(dir, ObjDirName)
	parent = strings.TrimSuffix(parent, "/")
	return "/" + strings.Trim(parent+"/"+name, "/"), true
}

// ParseSchemaFile reads and decodes a ".schema" convention file.
func ParseSchemaFile(path string) (model.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Schema{}, err
	}
	return DecodeSchemaJSON(data)
}

// ParseObjectFile reads and decodes a ".obj/.<name>.json" convention file
// into the property map Mount.Tag expects.
func ParseObjectFile(path string) (map[string]model.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodePropertiesJSON(data)
}

type jsonPropertySchema struct {
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

type jsonSchema struct {
	Properties map[string]jsonPropertySchema `json:"properties"`
}

// DecodeSchemaJSON parses a ".schema" file's bytes and rebuilds the generic
// map shape model.DecodeSchema expects, so a workspace schema file
// validates under exactly the same rules the mount engine applies.
func DecodeSchemaJSON(data []byte) (model.Schema, error) {
	var js jsonSchema
	if err := json.Unmarshal(data, &js); err != nil {
		return model.Schema{}, err
	}
	props := make(map[string]interface{}, len(js.Properties))
	for name, ps := range js.Properties {
		props[name] = map[string]interface{}{
			"type":        ps.Type,
			"required":    ps.Required,
			"description": ps.Description,
		}
	}
	return model.DecodeSchema(map[string]interface{}{"properties": props})
}

// DecodePropertiesJSON parses a ".obj/.<name>.json" file's bytes into a
// property map. Links cannot be expressed through this JSON convention —
// only string/number/bool/null/nested-map scalars — since a workspace file
// has no way to reference a identifier that only exists once pushed.
func DecodePropertiesJSON(data []byte) (map[string]model.Value, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	props := make(map[string]model.Value, len(raw))
	for k, v := range raw {
		props[k] = valueFromJSON(v)
	}
	return props, nil
}

// EncodeSchemaJSON renders schema back into the ".schema" convention file's
// JSON shape, the inverse of DecodeSchemaJSON, for pull to write to disk.
func EncodeSchemaJSON(schema model.Schema) ([]byte, error) {
	js := jsonSchema{Properties: make(map[string]jsonPropertySchema, len(schema.Properties))}
	for name, ps := range schema.Properties {
		js.Properties[name] = jsonPropertySchema{
			Type:        propertyTypeWire(ps.Type),
			Required:    ps.Required,
			Description: ps.Description,
		}
	}
	return json.MarshalIndent(js, "", "  ")
}

func propertyTypeWire(t model.PropertyType) string {
	switch t {
	case model.PropertyString:
		return "string"
	case model.PropertyInteger:
		return "integer"
	case model.PropertyFloat:
		return "float"
	case model.PropertyBool:
		return "bool"
	case model.PropertyNull:
		return "null"
	case model.PropertyMap:
		return "map"
	case model.PropertyLink:
		return "link"
	default:
		return "unknown"
	}
}

// EncodePropertiesJSON renders a property map back into a ".obj/.<name>.json"
// convention file's JSON shape, the inverse of DecodePropertiesJSON.
func EncodePropertiesJSON(props map[string]model.Value) ([]byte, error) {
	raw := make(map[string]interface{}, len(props))
	for k, v := range props {
		raw[k] = valueToJSON(v)
	}
	return json.MarshalIndent(raw, "", "  ")
}

func valueToJSON(v model.Value) interface{} {
	switch v.Kind {
	case model.ValueString:
		return v.Str
	case model.ValueInt:
		return v.Int
	case model.ValueFloat:
		return v.Flt
	case model.ValueBool:
		return v.Bool
	case model.ValueMap:
		out := make(map[string]interface{}, len(v.Map))
		for k, child := range v.Map {
			out[k] = valueToJSON(child)
		}
		return out
	case model.ValueLink:
		return v.Link.String()
	default:
		return nil
	}
}

func valueFromJSON(v interface{}) model.Value {
	switch t := v.(type) {
	case nil:
		return model.Null()
	case string:
		return model.String(t)
	case bool:
		return model.Bool(t)
	case float64:
		if t == float64(int64(t)) {
			return model.Int(int64(t))
		}
		return model.Float(t)
	case map[string]interface{}:
		out := make(map[string]model.Value, len(t))
		for k, child := range t {
			out[k] = valueFromJSON(child)
		}
		return model.Map(out)
	default:
		return model.Null()
	}
}
