package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/crelogic/lease-abstractor/internal/core/domain"
	"github.com/crelogic/lease-abstractor/internal/core/ports"
)

// ConsolidateUseCase drives one tenant's consolidation pipeline. Processing
// is serialized per tenant: a keyed lock guards the whole fetch -> extract ->
// merge -> commit sequence, because a later amendment's meaning depends on
// the committed abstract of its predecessor. Across tenants the use case is
// safe to call concurrently.
type ConsolidateUseCase struct {
	tenants       ports.TenantStore
	docs          ports.DocumentStore
	abstracts     ports.AbstractStore
	textExtractor ports.TextExtractor
	termExtractor ports.TermExtractor
	logger        *slog.Logger
	now           func() time.Time
	observer      ConsolidationObserver

	mu          sync.Mutex
	tenantLocks map[string]*sync.Mutex
}

// ConsolidationObserver receives pipeline progress events. Implementations
// must be safe for concurrent use; the worker binary plugs metrics in here.
type ConsolidationObserver interface {
	ConsolidationStarted(queueLag time.Duration)
	ConsolidationFinished(duration time.Duration, err error)
	OutcomeCommitted(overrides, supersededPeriods int, warnings []domain.DataQualityWarning)
}

func NewConsolidateUseCase(
	tenants ports.TenantStore,
	docs ports.DocumentStore,
	abstracts ports.AbstractStore,
	textExtractor ports.TextExtractor,
	termExtractor ports.TermExtractor,
	logger *slog.Logger,
) *ConsolidateUseCase {
	return &ConsolidateUseCase{
		tenants:       tenants,
		docs:          docs,
		abstracts:     abstracts,
		textExtractor: textExtractor,
		termExtractor: termExtractor,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
		tenantLocks:   make(map[string]*sync.Mutex),
	}
}

// WithObserver attaches a progress observer. Call before the use case is
// shared across goroutines.
func (uc *ConsolidateUseCase) WithObserver(observer ConsolidationObserver) *ConsolidateUseCase {
	uc.observer = observer
	return uc
}

// ProcessAll drains the tenant's queue until it is idle or blocked, returning
// the number of documents consolidated.
func (uc *ConsolidateUseCase) ProcessAll(ctx context.Context, tenantID string) (int, error) {
	processed := 0
	for {
		ok, err := uc.ProcessNext(ctx, tenantID)
		if err != nil {
			return processed, err
		}
		if !ok {
			return processed, nil
		}
		processed++
	}
}

// ProcessNext consolidates the next eligible document for the tenant. An
// empty or blocked queue is (false, nil), not an error.
func (uc *ConsolidateUseCase) ProcessNext(ctx context.Context, tenantID string) (bool, error) {
	lock := uc.lockFor(tenantID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := uc.tenants.GetTenant(ctx, tenantID); err != nil {
		return false, fmt.Errorf("load tenant: %w", err)
	}

	doc, err := uc.nextPending(ctx, tenantID)
	if err != nil {
		return false, err
	}
	if doc == nil {
		return false, nil
	}

	if err := uc.markProcessing(ctx, doc); err != nil {
		return false, err
	}

	if err := uc.consolidateDocument(ctx, doc); err != nil {
		return true, err
	}
	return true, nil
}

func (uc *ConsolidateUseCase) consolidateDocument(ctx context.Context, doc *domain.LeaseDocument) (err error) {
	started := uc.now()
	if uc.observer != nil {
		uc.observer.ConsolidationStarted(started.Sub(doc.UploadedAt))
		defer func() {
			uc.observer.ConsolidationFinished(uc.now().Sub(started), err)
		}()
	}
	uc.logger.Info("consolidation_started",
		"tenant_id", doc.TenantID, "document_id", doc.ID, "order", doc.Order, "kind", doc.Kind)

	consolidation, err := uc.buildConsolidation(ctx, doc)
	if err != nil {
		// A cancelled attempt stays in processing for external
		// reconciliation; it must never surface as completed or error.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if markErr := uc.markError(ctx, doc, err); markErr != nil {
			return fmt.Errorf("%w; mark error status: %w", err, markErr)
		}
		return err
	}

	// Cancellation boundary before the atomic commit.
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := uc.abstracts.CommitConsolidation(ctx, consolidation); err != nil {
		commitErr := fmt.Errorf("commit consolidation: %w", err)
		if ctx.Err() != nil {
			return commitErr
		}
		if markErr := uc.markError(ctx, doc, commitErr); markErr != nil {
			return fmt.Errorf("%w; mark error status: %w", commitErr, markErr)
		}
		return commitErr
	}

	if uc.observer != nil {
		uc.observer.OutcomeCommitted(
			len(consolidation.Amendments),
			len(consolidation.SupersededPeriods),
			consolidation.Document.Warnings,
		)
	}
	uc.logger.Info("consolidation_completed",
		"tenant_id", doc.TenantID,
		"document_id", doc.ID,
		"version", consolidation.Abstract.Version,
		"amendments", len(consolidation.Amendments),
		"new_periods", len(consolidation.NewPeriods),
		"superseded_periods", len(consolidation.SupersededPeriods),
		"warnings", len(consolidation.Document.Warnings),
		"duration_ms", uc.now().Sub(started).Milliseconds(),
	)
	return nil
}

// buildConsolidation runs extraction and the pure merge steps, producing the
// unit the storage collaborator applies atomically. No state is written here.
func (uc *ConsolidateUseCase) buildConsolidation(ctx context.Context, doc *domain.LeaseDocument) (*domain.Consolidation, error) {
	content, err := uc.textExtractor.Extract(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("extract document content: %w", err)
	}

	prior, err := uc.abstractSnapshot(ctx, doc.TenantID)
	if err != nil {
		return nil, err
	}

	req := domain.ExtractionRequest{
		DocumentName: doc.Name,
		IsAmendment:  doc.IsAmendment(),
		Content:      content,
	}
	if doc.IsAmendment() {
		req.PriorAbstract = prior
	}

	data, err := uc.termExtractor.Extract(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("extract lease terms: %w", err)
	}

	now := uc.now()

	activePeriods, err := uc.abstracts.ListRentPeriods(ctx, doc.TenantID, true)
	if err != nil {
		return nil, fmt.Errorf("list active rent periods: %w", err)
	}
	rentResult := MergeRentSchedule(activePeriods, data.RentSchedule, doc.TenantID, doc.ID, now)

	termResult := ConsolidateTerms(prior, doc, data, now)

	abstract := termResult.Abstract
	if termResult.Changed || len(rentResult.NewPeriods) > 0 {
		abstract.Version++
		abstract.UpdatedAt = now
	}

	completed := *doc
	if err := completed.Transition(domain.StatusCompleted); err != nil {
		return nil, err
	}
	completed.RawText = content.Text
	completed.ProcessedAt = &now
	completed.Warnings = append(append([]domain.DataQualityWarning(nil), termResult.Warnings...), rentResult.Warnings...)

	return &domain.Consolidation{
		Document:          &completed,
		Abstract:          abstract,
		Amendments:        termResult.Amendments,
		NewPeriods:        rentResult.NewPeriods,
		SupersededPeriods: rentResult.Superseded,
	}, nil
}

func (uc *ConsolidateUseCase) nextPending(ctx context.Context, tenantID string) (*domain.LeaseDocument, error) {
	docs, err := uc.docs.ListDocuments(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return domain.NextPending(docs), nil
}

func (uc *ConsolidateUseCase) markProcessing(ctx context.Context, doc *domain.LeaseDocument) error {
	if err := doc.Transition(domain.StatusProcessing); err != nil {
		return err
	}
	if err := uc.docs.TransitionDocument(ctx, doc.ID, domain.StatusPending, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	return nil
}

func (uc *ConsolidateUseCase) markError(ctx context.Context, doc *domain.LeaseDocument, cause error) error {
	uc.logger.Error("consolidation_failed",
		"tenant_id", doc.TenantID, "document_id", doc.ID, "error", cause)
	if err := uc.docs.TransitionDocument(ctx, doc.ID, domain.StatusProcessing, domain.StatusError, cause.Error()); err != nil {
		return fmt.Errorf("mark error: %w", err)
	}
	return nil
}

func (uc *ConsolidateUseCase) abstractSnapshot(ctx context.Context, tenantID string) (*domain.AbstractState, error) {
	prior, err := uc.abstracts.GetAbstract(ctx, tenantID)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return domain.NewAbstractState(tenantID, uc.now()), nil
		}
		return nil, fmt.Errorf("load abstract snapshot: %w", err)
	}
	return prior, nil
}

func (uc *ConsolidateUseCase) lockFor(tenantID string) *sync.Mutex {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	lock, ok := uc.tenantLocks[tenantID]
	if !ok {
		lock = &sync.Mutex{}
		uc.tenantLocks[tenantID] = lock
	}
	return lock
}
