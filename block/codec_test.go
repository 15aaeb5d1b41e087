package block

import "testing"

type wireSample struct {
	A string `refmt:"a"`
	B int64  `refmt:"b"`
}

func TestEncodeStructuredRoundTrip(t *testing.T) {
	in := wireSample{A: "hello", B: 7}

	b, err := EncodeStructured(in)
	if err != nil {
		t.Fatalf("EncodeStructured: %v", err)
	}

	var out wireSample
	if err := DecodeStructured(b.RawData(), &out); err != nil {
		t.Fatalf("DecodeStructured: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestEncodeStructuredDeterministic(t *testing.T) {
	in := wireSample{A: "hello", B: 7}

	b1, err := EncodeStructured(in)
	if err != nil {
		t.Fatalf("EncodeStructured: %v", err)
	}
	b2, err := EncodeStructured(in)
	if err != nil {
		t.Fatalf("EncodeStructured: %v", err)
	}
	if !b1.Identifier().Equal(b2.Identifier()) {
		t.Fatalf("identifier not stable across encodes: %s != %s", b1.Identifier(), b2.Identifier())
	}
	if string(b1.RawData()) != string(b2.RawData()) {
		t.Fatalf("encoded bytes not byte-stable across runs")
	}
}

func TestIdentifierCodecTags(t *testing.T) {
	b, err := EncodeStructured(wireSample{A: "x"})
	if err != nil {
		t.Fatalf("EncodeStructured: %v", err)
	}
	if !b.Identifier().IsStructured() {
		t.Fatalf("expected structured codec tag")
	}

	raw, err := EncodeRaw([]byte("payload"))
	if err != nil {
		t.Fatalf("EncodeRaw: %v", err)
	}
	if !raw.Identifier().IsRaw() {
		t.Fatalf("expected raw codec tag")
	}
}

func TestIdentifierTextFormRoundTrip(t *testing.T) {
	b, err := EncodeRaw([]byte("payload"))
	if err != nil {
		t.Fatalf("EncodeRaw: %v", err)
	}
	s := b.Identifier().String()
	parsed, err := ParseIdentifier(s)
	if err != nil {
		t.Fatalf("ParseIdentifier: %v", err)
	}
	if !parsed.Equal(b.Identifier()) {
		t.Fatalf("parsed identifier does not equal original")
	}
}

func TestDefaultIdentifier(t *testing.T) {
	d := Default()
	if !d.IsDefault() {
		t.Fatalf("Default() should report IsDefault")
	}
	if d.String() != "" {
		t.Fatalf("Default().String() should be empty, got %q", d.String())
	}
}

func TestDecodeErrorOnGarbage(t *testing.T) {
	var out wireSample
	err := DecodeStructured([]byte{0xff, 0xff, 0xff}, &out)
	if err == nil {
		t.Fatalf("expected DecodeError on malformed bytes")
	}
}

func TestStructuredLinksFindsEmbeddedCID(t *testing.T) {
	child, err := EncodeRaw([]byte("child payload"))
	if err != nil {
		t.Fatalf("EncodeRaw: %v", err)
	}

	parent, err := EncodeStructured(map[string]interface{}{"a": child.Identifier().CID()})
	if err != nil {
		t.Fatalf("EncodeStructured: %v", err)
	}

	links, err := StructuredLinks(parent.RawData())
	if err != nil {
		t.Fatalf("StructuredLinks: %v", err)
	}
	if len(links) != 1 || !links[0].Equals(child.Identifier().CID()) {
		t.Fatalf("expected a single link to the child CID, got %v", links)
	}
}

func TestStructuredLinksEmptyForLinkFreeNode(t *testing.T) {
	b, err := EncodeStructured(wireSample{A: "x", B: 1})
	if err != nil {
		t.Fatalf("EncodeStructured: %v", err)
	}
	links, err := StructuredLinks(b.RawData())
	if err != nil {
		t.Fatalf("StructuredLinks: %v", err)
	}
	if len(links) != 0 {
		t.Fatalf("expected no links, got %v", links)
	}
}
