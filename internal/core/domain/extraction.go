package domain

import "time"

// DocumentContent carries a document to the extraction collaborator: decoded
// text when local extraction succeeded, otherwise the raw (mime type, payload)
// pair for the collaborator's own document understanding.
type DocumentContent struct {
	Text     string
	MimeType string
	Payload  []byte
}

func (c DocumentContent) HasText() bool {
	return c.Text != ""
}

// ExtractionRequest is the input to the extraction collaborator.
// PriorAbstract is included for amendments so the collaborator can report
// what changed; its self-reported diff is never trusted for consolidation.
type ExtractionRequest struct {
	DocumentName  string
	IsAmendment   bool
	Content       DocumentContent
	PriorAbstract *AbstractState
}

// ReportedAmendment is the collaborator's own view of a change it made.
// Informational only: the term consolidator independently recomputes the
// authoritative amendment records.
type ReportedAmendment struct {
	Field         TermName   `json:"field"`
	OriginalValue FieldValue `json:"originalValue"`
	NewValue      FieldValue `json:"newValue"`
	EffectiveDate string     `json:"effectiveDate,omitempty"`
	Citation      *Citation  `json:"citation,omitempty"`
}

// ExtractedLeaseData is one document's validated extraction result.
type ExtractedLeaseData struct {
	Fields             map[TermName]ExtractedField
	RentSchedule       []RentPeriodDraft
	ReportedAmendments []ReportedAmendment
	// EffectiveDate is the amendment's stated effective date when the
	// collaborator found one; consolidation falls back to processing time.
	EffectiveDate *time.Time
}

// Field returns the extraction result for a term, absent when the document
// did not discuss it.
func (d *ExtractedLeaseData) Field(name TermName) ExtractedField {
	if d.Fields == nil {
		return ExtractedField{}
	}
	return d.Fields[name]
}
