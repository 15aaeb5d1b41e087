package workspace

import (
	"testing"

	"github.com/mountfs/mount/model"
)

func TestIsSchemaFile(t *testing.T) {
	cases := []struct {
		rel      string
		wantPath string
		wantOK   bool
	}{
		{".schema", "/", true},
		{"docs/.schema", "/docs", true},
		{"docs/readme.md", "", false},
	}
	for _, c := range cases {
		path, ok := IsSchemaFile(c.rel)
		if ok != c.wantOK {
			t.Fatalf("IsSchemaFile(%q) ok = %v, want %v", c.rel, ok, c.wantOK)
		}
		if ok && path != c.wantPath {
			t.Fatalf("IsSchemaFile(%q) path = %q, want %q", c.rel, path, c.wantPath)
		}
	}
}

func TestIsObjectFile(t *testing.T) {
	cases := []struct {
		rel      string
		wantPath string
		wantOK   bool
	}{
		{"docs/.obj/.readme.md.json", "/docs/readme.md", true},
		{".obj/.a.json", "/a", true},
		{"docs/readme.md", "", false},
		{"docs/.obj/readme.md.json", "", false},
	}
	for _, c := range cases {
		path, ok := IsObjectFile(c.rel)
		if ok != c.wantOK {
			t.Fatalf("IsObjectFile(%q) ok = %v, want %v", c.rel, ok, c.wantOK)
		}
		if ok && path != c.wantPath {
			t.Fatalf("IsObjectFile(%q) path = %q, want %q", c.rel, path, c.wantPath)
		}
	}
}

func TestSchemaJSONRoundTrip(t *testing.T) {
	schema := model.Schema{Properties: map[string]model.PropertySchema{
		"title": {Type: model.PropertyString, Required: true, Description: "the title"},
		"count": {Type: model.PropertyInteger},
	}}

	data, err := EncodeSchemaJSON(schema)
	if err != nil {
		t.Fatalf("EncodeSchemaJSON: %v", err)
	}
	decoded, err := DecodeSchemaJSON(data)
	if err != nil {
		t.Fatalf("DecodeSchemaJSON: %v", err)
	}
	if len(decoded.Properties) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(decoded.Properties))
	}
	title := decoded.Properties["title"]
	if title.Type != model.PropertyString || !title.Required || title.Description != "the title" {
		t.Fatalf("unexpected title property: %+v", title)
	}
}

func TestPropertiesJSONRoundTrip(t *testing.T) {
	props := map[string]model.Value{
		"name":   model.String("leaky"),
		"count":  model.Int(3),
		"active": model.Bool(true),
	}

	data, err := EncodePropertiesJSON(props)
	if err != nil {
		t.Fatalf("EncodePropertiesJSON: %v", err)
	}
	decoded, err := DecodePropertiesJSON(data)
	if err != nil {
		t.Fatalf("DecodePropertiesJSON: %v", err)
	}
	if decoded["name"].Kind != model.ValueString || decoded["name"].Str != "leaky" {
		t.Fatalf("unexpected name property: %+v", decoded["name"])
	}
	if decoded["count"].Kind != model.ValueInt || decoded["count"].Int != 3 {
		t.Fatalf("unexpected count property: %+v", decoded["count"])
	}
	if decoded["active"].Kind != model.ValueBool || !decoded["active"].Bool {
		t.Fatalf("unexpected active property: %+v", decoded["active"])
	}
}
