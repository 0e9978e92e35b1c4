package domain

// PeriodSupersession marks one existing rent period as replaced by a newly
// inserted one.
type PeriodSupersession struct {
	PeriodID     string `json:"period_id"`
	SupersededBy string `json:"superseded_by"`
}

// Consolidation is the full outcome of folding one document into a tenant's
// state. It is applied atomically: either every piece persists, including the
// document's completed status, or none does.
type Consolidation struct {
	Document          *LeaseDocument
	Abstract          *AbstractState
	Amendments        []AmendmentRecord
	NewPeriods        []RentPeriod
	SupersededPeriods []PeriodSupersession
}

// AbstractView is the read model the service layer and exporter consume:
// the consolidated abstract, the active rent schedule, and the amendment
// history.
type AbstractView struct {
	Abstract     *AbstractState    `json:"abstract"`
	RentSchedule []RentPeriod      `json:"rent_schedule"`
	Amendments   []AmendmentRecord `json:"amendment_history"`
}
