package usecase

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/crelogic/lease-abstractor/internal/core/domain"
)

// RentMergeResult is the outcome of reconciling one document's rent periods
// against the tenant's existing schedule.
type RentMergeResult struct {
	NewPeriods []domain.RentPeriod
	Superseded []domain.PeriodSupersession
	Warnings   []domain.DataQualityWarning
}

// MergeRentSchedule incorporates a document's extracted rent periods into the
// tenant's schedule. A later document's rent table is authoritative for the
// ranges it covers: overlapping active periods are superseded, not deleted.
// Invalid drafts (end <= start) and drafts overlapping another draft from the
// same document are skipped with a warning, since within one document there
// is no ordering signal to break the tie.
//
// Post-condition: the surviving active set has pairwise non-overlapping
// [start, end) ranges.
func MergeRentSchedule(
	existing []domain.RentPeriod,
	drafts []domain.RentPeriodDraft,
	tenantID, documentID string,
	now time.Time,
) RentMergeResult {
	ordered := make([]domain.RentPeriodDraft, len(drafts))
	copy(ordered, drafts)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].PeriodStart.Before(ordered[j].PeriodStart) })

	var result RentMergeResult
	supersededBy := make(map[string]string)

	for _, draft := range ordered {
		if !draft.PeriodEnd.After(draft.PeriodStart) {
			result.Warnings = append(result.Warnings, domain.DataQualityWarning{
				Kind: domain.WarningInvalidRentPeriod,
				Detail: fmt.Sprintf("period end %s is not after start %s",
					draft.PeriodEnd.Format("2006-01-02"), draft.PeriodStart.Format("2006-01-02")),
			})
			continue
		}

		period := domain.RentPeriod{
			ID:              uuid.NewString(),
			TenantID:        tenantID,
			LeaseDocumentID: documentID,
			PeriodStart:     draft.PeriodStart,
			PeriodEnd:       draft.PeriodEnd,
			MonthlyBaseRent: draft.MonthlyBaseRent,
			AnnualBaseRent:  draft.AnnualBaseRent,
			RentPerSqFt:     draft.RentPerSqFt,
			Notes:           draft.Notes,
			Citation:        draft.Citation,
			CreatedAt:       now,
		}

		if conflict := overlapsAny(result.NewPeriods, period); conflict != nil {
			result.Warnings = append(result.Warnings, domain.DataQualityWarning{
				Kind: domain.WarningPeriodOverlap,
				Detail: fmt.Sprintf("period starting %s overlaps period starting %s from the same document",
					period.PeriodStart.Format("2006-01-02"), conflict.PeriodStart.Format("2006-01-02")),
			})
			continue
		}

		for i := range existing {
			if existing[i].IsSuperseded {
				continue
			}
			if existing[i].Overlaps(period) {
				// Last-written new period wins the pointer when several
				// drafts cover the same old period.
				supersededBy[existing[i].ID] = period.ID
			}
		}

		result.NewPeriods = append(result.NewPeriods, period)
	}

	for periodID, newID := range supersededBy {
		result.Superseded = append(result.Superseded, domain.PeriodSupersession{
			PeriodID:     periodID,
			SupersededBy: newID,
		})
	}
	sort.Slice(result.Superseded, func(i, j int) bool {
		return result.Superseded[i].PeriodID < result.Superseded[j].PeriodID
	})

	return result
}

func overlapsAny(accepted []domain.RentPeriod, p domain.RentPeriod) *domain.RentPeriod {
	for i := range accepted {
		if accepted[i].Overlaps(p) {
			return &accepted[i]
		}
	}
	return nil
}
