package canon

import "testing"

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	type inner struct {
		A string `cbor:"a"`
		B int64  `cbor:"b"`
	}

	in := inner{A: "hello", B: 42}
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out inner
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	type m struct {
		Z int `cbor:"z"`
		A int `cbor:"a"`
	}
	v := m{Z: 1, A: 2}

	first, err := Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("encoding not deterministic: %x != %x", first, second)
	}
}
