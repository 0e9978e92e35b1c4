package usecase

import (
	"testing"
	"time"

	"github.com/crelogic/lease-abstractor/internal/core/domain"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := domain.ParseISODate(s)
	if err != nil {
		t.Fatalf("ParseISODate(%q) error = %v", s, err)
	}
	return parsed
}

func draft(t *testing.T, start, end string, monthly float64) domain.RentPeriodDraft {
	t.Helper()
	return domain.RentPeriodDraft{
		PeriodStart:     day(t, start),
		PeriodEnd:       day(t, end),
		MonthlyBaseRent: monthly,
		AnnualBaseRent:  monthly * 12,
	}
}

func activePeriod(t *testing.T, id, start, end string) domain.RentPeriod {
	t.Helper()
	return domain.RentPeriod{
		ID:          id,
		TenantID:    "t1",
		PeriodStart: day(t, start),
		PeriodEnd:   day(t, end),
	}
}

func assertActiveNonOverlapping(t *testing.T, existing []domain.RentPeriod, result RentMergeResult) {
	t.Helper()
	superseded := make(map[string]bool, len(result.Superseded))
	for _, s := range result.Superseded {
		superseded[s.PeriodID] = true
	}
	var active []domain.RentPeriod
	for _, p := range existing {
		if !p.IsSuperseded && !superseded[p.ID] {
			active = append(active, p)
		}
	}
	active = append(active, result.NewPeriods...)
	for i := range active {
		for j := i + 1; j < len(active); j++ {
			if active[i].Overlaps(active[j]) {
				t.Fatalf("active periods overlap: %s and %s",
					active[i].PeriodStart.Format("2006-01-02"), active[j].PeriodStart.Format("2006-01-02"))
			}
		}
	}
}

func TestMergeRentScheduleSupersedesOverlappingPeriods(t *testing.T) {
	existing := []domain.RentPeriod{
		activePeriod(t, "p1", "2024-01-01", "2025-01-01"),
		activePeriod(t, "p2", "2025-01-01", "2026-01-01"),
	}
	drafts := []domain.RentPeriodDraft{
		draft(t, "2025-06-01", "2026-06-01", 40000),
	}

	result := MergeRentSchedule(existing, drafts, "t1", "d2", mergeNow)

	if len(result.NewPeriods) != 1 {
		t.Fatalf("NewPeriods = %d", len(result.NewPeriods))
	}
	if len(result.Superseded) != 1 || result.Superseded[0].PeriodID != "p2" {
		t.Fatalf("Superseded = %+v, want p2", result.Superseded)
	}
	if result.Superseded[0].SupersededBy != result.NewPeriods[0].ID {
		t.Fatalf("supersession points at %s, want %s", result.Superseded[0].SupersededBy, result.NewPeriods[0].ID)
	}
	assertActiveNonOverlapping(t, existing, result)
}

func TestMergeRentScheduleNonOverlappingExtension(t *testing.T) {
	existing := []domain.RentPeriod{
		activePeriod(t, "p1", "2024-01-01", "2026-01-01"),
	}
	drafts := []domain.RentPeriodDraft{
		draft(t, "2026-01-01", "2027-01-01", 42000),
		draft(t, "2027-01-01", "2028-01-01", 44000),
	}

	result := MergeRentSchedule(existing, drafts, "t1", "d1", mergeNow)

	if len(result.NewPeriods) != 2 {
		t.Fatalf("NewPeriods = %d", len(result.NewPeriods))
	}
	if len(result.Superseded) != 0 {
		t.Fatalf("extension superseded existing periods: %+v", result.Superseded)
	}
	assertActiveNonOverlapping(t, existing, result)
}

func TestMergeRentScheduleSkipsInvalidDraft(t *testing.T) {
	drafts := []domain.RentPeriodDraft{
		draft(t, "2025-01-01", "2025-01-01", 40000),
		draft(t, "2025-01-01", "2026-01-01", 40000),
	}

	result := MergeRentSchedule(nil, drafts, "t1", "d1", mergeNow)

	if len(result.NewPeriods) != 1 {
		t.Fatalf("NewPeriods = %d", len(result.NewPeriods))
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Kind != domain.WarningInvalidRentPeriod {
		t.Fatalf("warnings = %+v", result.Warnings)
	}
}

func TestMergeRentScheduleSkipsSameDocumentOverlap(t *testing.T) {
	drafts := []domain.RentPeriodDraft{
		draft(t, "2025-01-01", "2026-01-01", 40000),
		draft(t, "2025-06-01", "2026-06-01", 45000),
	}

	result := MergeRentSchedule(nil, drafts, "t1", "d1", mergeNow)

	if len(result.NewPeriods) != 1 {
		t.Fatalf("NewPeriods = %d", len(result.NewPeriods))
	}
	if result.NewPeriods[0].MonthlyBaseRent != 40000 {
		t.Fatalf("kept the later-starting draft: %+v", result.NewPeriods[0])
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Kind != domain.WarningPeriodOverlap {
		t.Fatalf("warnings = %+v", result.Warnings)
	}
	assertActiveNonOverlapping(t, nil, result)
}

func TestMergeRentScheduleIgnoresAlreadySuperseded(t *testing.T) {
	old := activePeriod(t, "p1", "2024-01-01", "2025-01-01")
	old.IsSuperseded = true
	old.SupersededBy = "p2"
	existing := []domain.RentPeriod{
		old,
		activePeriod(t, "p2", "2024-01-01", "2025-01-01"),
	}
	drafts := []domain.RentPeriodDraft{
		draft(t, "2024-06-01", "2025-06-01", 50000),
	}

	result := MergeRentSchedule(existing, drafts, "t1", "d3", mergeNow)

	if len(result.Superseded) != 1 || result.Superseded[0].PeriodID != "p2" {
		t.Fatalf("Superseded = %+v, want only p2", result.Superseded)
	}
}

func TestMergeRentScheduleEmptyDraftsIsNoOp(t *testing.T) {
	existing := []domain.RentPeriod{
		activePeriod(t, "p1", "2024-01-01", "2025-01-01"),
	}

	result := MergeRentSchedule(existing, nil, "t1", "d1", mergeNow)

	if len(result.NewPeriods) != 0 || len(result.Superseded) != 0 || len(result.Warnings) != 0 {
		t.Fatalf("no-op merge produced %+v", result)
	}
}

func TestMergeRentSchedulePopulatesPeriodMetadata(t *testing.T) {
	d := draft(t, "2025-01-01", "2026-01-01", 40000)
	d.RentPerSqFt = 32.5
	d.Notes = "includes CPI escalation"
	d.Citation = &domain.Citation{Document: "First Amendment", Section: "Exhibit B"}

	result := MergeRentSchedule(nil, []domain.RentPeriodDraft{d}, "t1", "d1", mergeNow)

	if len(result.NewPeriods) != 1 {
		t.Fatalf("NewPeriods = %d", len(result.NewPeriods))
	}
	p := result.NewPeriods[0]
	if p.ID == "" || p.TenantID != "t1" || p.LeaseDocumentID != "d1" {
		t.Fatalf("period identity not populated: %+v", p)
	}
	if p.RentPerSqFt != 32.5 || p.Notes == "" || p.Citation == nil {
		t.Fatalf("period metadata dropped: %+v", p)
	}
	if p.IsSuperseded || p.SupersededBy != "" {
		t.Fatalf("new period created superseded: %+v", p)
	}
}
