package usecase

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/crelogic/lease-abstractor/internal/core/domain"
)

// TermMergeResult is the outcome of folding one document's extracted fields
// into an abstract snapshot.
type TermMergeResult struct {
	Abstract   *domain.AbstractState
	Amendments []domain.AmendmentRecord
	Warnings   []domain.DataQualityWarning
	Changed    bool
}

// ConsolidateTerms folds one document's extraction result into the tenant's
// abstract. Pure: the prior state is cloned, never mutated, so a failed
// commit leaves the caller's snapshot intact.
//
// Per term: absent leaves the prior value untouched, an equal value is a
// no-op, a differing value overrides and, when a prior value existed, appends
// an amendment record. Documents are processed in strictly increasing order,
// so last-written here is always the most recent amendment.
func ConsolidateTerms(
	prior *domain.AbstractState,
	doc *domain.LeaseDocument,
	data *domain.ExtractedLeaseData,
	now time.Time,
) TermMergeResult {
	next := prior.Clone()

	effectiveDate := now
	if data.EffectiveDate != nil {
		effectiveDate = *data.EffectiveDate
	}

	result := TermMergeResult{Abstract: next}
	for _, name := range domain.Terms() {
		field := data.Field(name)
		if field.IsAbsent() {
			continue
		}

		if field.Citation == nil {
			result.Warnings = append(result.Warnings, domain.DataQualityWarning{
				Kind:   domain.WarningMissingCitation,
				Field:  string(name),
				Detail: fmt.Sprintf("%s has a value but no citation in %s", domain.DisplayName(name), doc.Name),
			})
		}

		current, hadCurrent := next.Field(name)
		if hadCurrent && current.Value.Equal(field.Value) {
			continue
		}

		next.Fields[name] = field
		result.Changed = true

		// First population is not an override; only a genuine change of a
		// previously known value enters the amendment history.
		if !hadCurrent || current.Value.IsAbsent() {
			continue
		}
		result.Amendments = append(result.Amendments, domain.AmendmentRecord{
			ID:             uuid.NewString(),
			TenantID:       next.TenantID,
			Field:          name,
			OriginalValue:  current.Value,
			NewValue:       field.Value,
			SourceDocument: doc.ID,
			EffectiveDate:  effectiveDate,
			Citation:       field.Citation,
			CreatedAt:      now,
		})
	}

	if result.Changed {
		next.UpdatedAt = now
	}
	return result
}
