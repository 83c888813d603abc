package jsonval

import (
	"strings"
	"testing"
)

func TestDecodeScalars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Value
	}{
		{"null", "null", Null()},
		{"true", "true", Bool(true)},
		{"false", "false", Bool(false)},
		{"integer", "42", Number(42)},
		{"negative", "-7", Number(-7)},
		{"float", "3.5", Number(3.5)},
		{"exponent", "1e3", Number(1000)},
		{"negative exponent", "2.5e-1", Number(0.25)},
		{"string", `"hello"`, String("hello")},
		{"escapes", `"a\"b\\c\nd\te"`, String("a\"b\\c\nd\te")},
		{"unicode escape", `"é"`, String("é")},
		{"surrogate pair", `"😀"`, String("😀")},
		{"surrounding whitespace", "  17 \n", Number(17)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input)
			if err != nil {
				t.Fatalf("Decode(%q) error: %v", tt.input, err)
			}
			if !got.Equal(tt.expected) {
				t.Errorf("Decode(%q) = %+v, want %+v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDecodeContainers(t *testing.T) {
	v, err := Decode(`{"type":"macro","steps":[{"buttons":["UP"],"duration":45},{"buttons":[],"duration":1}]}`)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	typ, ok := v.Get("type")
	if !ok || typ.StringOr("") != "macro" {
		t.Fatalf("type field = %+v", typ)
	}

	steps, ok := v.Get("steps")
	if !ok || steps.Kind != KindArray || len(steps.Arr) != 2 {
		t.Fatalf("steps field = %+v", steps)
	}

	first := steps.Arr[0]
	if dur, _ := first.Get("duration"); dur.IntOr(0) != 45 {
		t.Fatalf("first step duration = %+v", dur)
	}
	second := steps.Arr[1]
	if buttons, _ := second.Get("buttons"); buttons.Kind != KindArray || len(buttons.Arr) != 0 {
		t.Fatalf("second step buttons should be an empty array, got %+v", buttons)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"bare word", "frame"},
		{"truncated object", `{"a":1`},
		{"truncated array", `[1,2`},
		{"missing colon", `{"a" 1}`},
		{"unterminated string", `"abc`},
		{"bad escape", `"\q"`},
		{"trailing data", `{} extra`},
		{"two values", "1 2"},
		{"lone minus", "-"},
		{"control char in string", "\"a\x01b\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.input); err == nil {
				t.Errorf("Decode(%q) should have failed", tt.input)
			} else if !strings.Contains(err.Error(), "offset") {
				t.Errorf("error should carry an offset: %v", err)
			}
		})
	}
}

func TestDecodeErrorOffset(t *testing.T) {
	_, err := Decode(`{"a":flase}`)
	if err == nil {
		t.Fatal("expected error")
	}
	se, ok := err.(*SyntaxError)
	if !ok {
		t.Fatalf("expected *SyntaxError, got %T", err)
	}
	if se.Offset != 5 {
		t.Fatalf("offset = %d, want 5", se.Offset)
	}
}

func TestEncodeEmptyContainersDistinct(t *testing.T) {
	if got := Encode(Array()); got != "[]" {
		t.Fatalf("empty array encoded as %q", got)
	}
	if got := Encode(Object(nil)); got != "{}" {
		t.Fatalf("empty object encoded as %q", got)
	}
}

func TestEncodeIntegerShape(t *testing.T) {
	// Frame counters and memory reads must not grow a fractional part.
	if got := Encode(Number(12345)); got != "12345" {
		t.Fatalf("Encode(12345) = %q", got)
	}
	if got := Encode(Number(0.5)); got != "0.5" {
		t.Fatalf("Encode(0.5) = %q", got)
	}
}

func TestRoundTrip(t *testing.T) {
	values := []Value{
		Null(),
		Bool(true),
		Number(-3.25),
		Number(4294967295),
		String("line\nbreak \"quoted\" back\\slash"),
		Array(Number(1), String("two"), Bool(false), Null()),
		Array(),
		Object(nil),
		Object(map[string]Value{
			"frame": Number(12345),
			"nested": Object(map[string]Value{
				"steps": Array(Object(map[string]Value{
					"buttons":  Array(String("UP"), String("A")),
					"duration": Number(45),
				})),
			}),
		}),
	}

	for _, v := range values {
		encoded := Encode(v)
		decoded, err := Decode(encoded)
		if err != nil {
			t.Fatalf("Decode(Encode(%+v)) error: %v (encoded %q)", v, err, encoded)
		}
		if !decoded.Equal(v) {
			t.Fatalf("round trip mismatch: %+v -> %q -> %+v", v, encoded, decoded)
		}
	}
}
