package domain

import "time"

// RentPeriod is one row of a tenant's rent schedule. PeriodEnd is exclusive.
// IsSuperseded and SupersededBy are the only fields ever mutated after
// creation, and only by a later document's merge. Superseded rows remain for
// audit.
type RentPeriod struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenant_id"`
	LeaseDocumentID string    `json:"lease_document_id"`
	PeriodStart     time.Time `json:"period_start"`
	PeriodEnd       time.Time `json:"period_end"`
	MonthlyBaseRent float64   `json:"monthly_base_rent"`
	AnnualBaseRent  float64   `json:"annual_base_rent"`
	RentPerSqFt     float64   `json:"rent_per_sq_ft"`
	Notes           string    `json:"notes,omitempty"`
	Citation        *Citation `json:"citation,omitempty"`
	IsSuperseded    bool      `json:"is_superseded"`
	SupersededBy    string    `json:"superseded_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Overlaps reports whether the half-open ranges [p.PeriodStart, p.PeriodEnd)
// and [other.PeriodStart, other.PeriodEnd) intersect.
func (p RentPeriod) Overlaps(other RentPeriod) bool {
	return p.PeriodStart.Before(other.PeriodEnd) && other.PeriodStart.Before(p.PeriodEnd)
}

// RentPeriodDraft is a rent period as reported by the extraction collaborator
// for one document, before merging into the tenant's schedule.
type RentPeriodDraft struct {
	PeriodStart     time.Time `json:"period_start"`
	PeriodEnd       time.Time `json:"period_end"`
	MonthlyBaseRent float64   `json:"monthly_base_rent"`
	AnnualBaseRent  float64   `json:"annual_base_rent"`
	RentPerSqFt     float64   `json:"rent_per_sq_ft"`
	Notes           string    `json:"notes,omitempty"`
	Citation        *Citation `json:"citation,omitempty"`
}
