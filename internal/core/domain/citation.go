package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Citation points an extracted value back to its source location in a lease
// document. A non-absent value without a citation is a data-quality anomaly,
// recorded as a warning rather than rejected.
type Citation struct {
	Document  string `json:"document"`
	Section   string `json:"section"`
	Page      string `json:"page"`
	Paragraph string `json:"paragraph,omitempty"`
}

func (c Citation) String() string {
	if c.Paragraph == "" {
		return fmt.Sprintf("%s - %s (p. %s)", c.Document, c.Section, c.Page)
	}
	return fmt.Sprintf("%s - %s (p. %s, para. %s)", c.Document, c.Section, c.Page, c.Paragraph)
}

// FieldValue holds one extracted term value in canonical JSON form. Terms may
// be strings, numbers, date strings, or structured provision objects; storing
// the re-marshaled decoded form makes equality independent of key order and
// formatting in the source payload.
type FieldValue struct {
	canonical []byte
}

// NewFieldValue canonicalizes raw JSON. JSON null and empty input both map to
// the absent value.
func NewFieldValue(raw json.RawMessage) (FieldValue, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return FieldValue{}, nil
	}

	var decoded any
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return FieldValue{}, fmt.Errorf("decode field value: %w", err)
	}
	canonical, err := json.Marshal(decoded)
	if err != nil {
		return FieldValue{}, fmt.Errorf("canonicalize field value: %w", err)
	}
	return FieldValue{canonical: canonical}, nil
}

// StringValue builds a FieldValue from a plain string.
func StringValue(s string) FieldValue {
	canonical, _ := json.Marshal(s)
	return FieldValue{canonical: canonical}
}

// NumberValue builds a FieldValue from a number.
func NumberValue(n float64) FieldValue {
	canonical, _ := json.Marshal(n)
	return FieldValue{canonical: canonical}
}

func (v FieldValue) IsAbsent() bool {
	return len(v.canonical) == 0
}

// Equal compares structurally: canonical forms are byte-identical exactly when
// the decoded values are equal.
func (v FieldValue) Equal(other FieldValue) bool {
	return bytes.Equal(v.canonical, other.canonical)
}

// AsString returns the value when it is a JSON string, otherwise a compact
// JSON rendering. Absent values render empty.
func (v FieldValue) AsString() string {
	if v.IsAbsent() {
		return ""
	}
	var s string
	if err := json.Unmarshal(v.canonical, &s); err == nil {
		return s
	}
	return string(v.canonical)
}

// AsNumber returns the value when it is a JSON number.
func (v FieldValue) AsNumber() (float64, bool) {
	if v.IsAbsent() {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(v.canonical, &n); err != nil {
		return 0, false
	}
	return n, true
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	if v.IsAbsent() {
		return []byte("null"), nil
	}
	return append([]byte(nil), v.canonical...), nil
}

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	parsed, err := NewFieldValue(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ExtractedField is one business term as produced by extraction for a single
// document. Immutable once produced.
type ExtractedField struct {
	Value    FieldValue `json:"value"`
	Citation *Citation  `json:"citation,omitempty"`
	Notes    string     `json:"notes,omitempty"`
}

func (f ExtractedField) IsAbsent() bool {
	return f.Value.IsAbsent()
}

type WarningKind string

const (
	WarningMissingCitation   WarningKind = "missing_citation"
	WarningInvalidRentPeriod WarningKind = "invalid_rent_period"
	WarningPeriodOverlap     WarningKind = "overlapping_periods_in_document"
)

// DataQualityWarning records a recoverable anomaly found while consolidating a
// document. Warnings never block consolidation; they are persisted with the
// document for operator review.
type DataQualityWarning struct {
	Kind   WarningKind `json:"kind"`
	Field  string      `json:"field,omitempty"`
	Detail string      `json:"detail"`
}
