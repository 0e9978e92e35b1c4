package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestFieldValueEqualStructural(t *testing.T) {
	left, err := NewFieldValue([]byte(`{"b": 2, "a": 1}`))
	if err != nil {
		t.Fatalf("NewFieldValue() error = %v", err)
	}
	right, err := NewFieldValue([]byte(`{"a":1,"b":2}`))
	if err != nil {
		t.Fatalf("NewFieldValue() error = %v", err)
	}
	if !left.Equal(right) {
		t.Fatalf("structurally equal objects compared unequal")
	}

	other, err := NewFieldValue([]byte(`{"a":1,"b":3}`))
	if err != nil {
		t.Fatalf("NewFieldValue() error = %v", err)
	}
	if left.Equal(other) {
		t.Fatalf("different objects compared equal")
	}
}

func TestFieldValueAbsent(t *testing.T) {
	for _, raw := range []string{"", "null", "  null  "} {
		v, err := NewFieldValue([]byte(raw))
		if err != nil {
			t.Fatalf("NewFieldValue(%q) error = %v", raw, err)
		}
		if !v.IsAbsent() {
			t.Fatalf("NewFieldValue(%q) not absent", raw)
		}
	}
	if StringValue("2023").IsAbsent() {
		t.Fatalf("string value reported absent")
	}
}

func TestFieldValueRejectsMalformedJSON(t *testing.T) {
	if _, err := NewFieldValue([]byte(`{"a":`)); err == nil {
		t.Fatalf("expected error for malformed JSON")
	}
}

func TestFieldValueStringAndNumberAccessors(t *testing.T) {
	if got := StringValue("Acme Corp").AsString(); got != "Acme Corp" {
		t.Fatalf("AsString() = %q", got)
	}
	n, ok := NumberValue(12500.5).AsNumber()
	if !ok || n != 12500.5 {
		t.Fatalf("AsNumber() = %v, %v", n, ok)
	}
	if _, ok := StringValue("abc").AsNumber(); ok {
		t.Fatalf("AsNumber() accepted a string")
	}
}

func TestFieldValueJSONRoundTrip(t *testing.T) {
	type holder struct {
		Value FieldValue `json:"value"`
	}

	raw := []byte(`{"value":{"kind":"notice-based","noticeDays":180}}`)
	var h holder
	if err := json.Unmarshal(raw, &h); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if h.Value.IsAbsent() {
		t.Fatalf("unmarshalled value is absent")
	}

	var absent holder
	if err := json.Unmarshal([]byte(`{"value":null}`), &absent); err != nil {
		t.Fatalf("Unmarshal(null) error = %v", err)
	}
	if !absent.Value.IsAbsent() {
		t.Fatalf("null did not unmarshal to absent")
	}
	out, err := json.Marshal(absent)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != `{"value":null}` {
		t.Fatalf("absent marshalled as %s", out)
	}
}

func TestCitationString(t *testing.T) {
	c := Citation{Document: "Second Amendment", Section: "Article 4", Page: "3", Paragraph: "b"}
	got := c.String()
	if got == "" {
		t.Fatalf("String() empty")
	}
	for _, want := range []string{"Second Amendment", "Article 4"} {
		if !strings.Contains(got, want) {
			t.Fatalf("String() = %q, missing %q", got, want)
		}
	}
}
