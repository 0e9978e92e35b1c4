package domain

import "time"

// AbstractState is the tenant's current consolidated set of business terms.
// Mutated only by the term consolidator; read by everything else as a
// snapshot. Version increases whenever a document's consolidation changes the
// abstract or its rent schedule.
type AbstractState struct {
	TenantID  string                      `json:"tenant_id"`
	Version   int64                       `json:"version"`
	Fields    map[TermName]ExtractedField `json:"fields"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

func NewAbstractState(tenantID string, now time.Time) *AbstractState {
	return &AbstractState{
		TenantID:  tenantID,
		Version:   0,
		Fields:    make(map[TermName]ExtractedField),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *AbstractState) Field(name TermName) (ExtractedField, bool) {
	f, ok := s.Fields[name]
	return f, ok
}

// Clone returns an independent copy so consolidation can work on a scratch
// state and leave the caller's snapshot untouched on failure.
func (s *AbstractState) Clone() *AbstractState {
	out := *s
	out.Fields = make(map[TermName]ExtractedField, len(s.Fields))
	for name, field := range s.Fields {
		out.Fields[name] = field
	}
	return &out
}

// AmendmentRecord is an append-only log entry written whenever a document
// overrides a term whose prior value differed. Never mutated or deleted.
type AmendmentRecord struct {
	ID             string     `json:"id"`
	TenantID       string     `json:"tenant_id"`
	Field          TermName   `json:"field"`
	OriginalValue  FieldValue `json:"original_value"`
	NewValue       FieldValue `json:"new_value"`
	SourceDocument string     `json:"source_document"`
	EffectiveDate  time.Time  `json:"effective_date"`
	Citation       *Citation  `json:"citation,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
