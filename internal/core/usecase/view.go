package usecase

import (
	"context"
	"fmt"

	"github.com/crelogic/lease-abstractor/internal/core/domain"
	"github.com/crelogic/lease-abstractor/internal/core/ports"
)

// AbstractViewUseCase assembles the consolidated read model for a tenant:
// abstract, active rent schedule, amendment history.
type AbstractViewUseCase struct {
	abstracts ports.AbstractStore
}

func NewAbstractViewUseCase(abstracts ports.AbstractStore) *AbstractViewUseCase {
	return &AbstractViewUseCase{abstracts: abstracts}
}

func (uc *AbstractViewUseCase) GetAbstractView(ctx context.Context, tenantID string) (*domain.AbstractView, error) {
	abstract, err := uc.abstracts.GetAbstract(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load abstract: %w", err)
	}

	schedule, err := uc.abstracts.ListRentPeriods(ctx, tenantID, true)
	if err != nil {
		return nil, fmt.Errorf("list rent schedule: %w", err)
	}

	amendments, err := uc.abstracts.ListAmendments(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list amendment history: %w", err)
	}

	return &domain.AbstractView{
		Abstract:     abstract,
		RentSchedule: schedule,
		Amendments:   amendments,
	}, nil
}
