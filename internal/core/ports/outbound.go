package ports

import (
	"context"
	"io"

	"github.com/crelogic/lease-abstractor/internal/core/domain"
)

// TenantStore persists and reads tenants.
type TenantStore interface {
	CreateTenant(ctx context.Context, tenant *domain.Tenant) error
	GetTenant(ctx context.Context, id string) (*domain.Tenant, error)
	ListTenants(ctx context.Context) ([]domain.Tenant, error)
	ListTenantsByProperty(ctx context.Context, propertyName string) ([]domain.Tenant, error)
}

// DocumentStore persists lease documents and their lifecycle state.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *domain.LeaseDocument) error
	GetDocument(ctx context.Context, id string) (*domain.LeaseDocument, error)
	// ListDocuments returns a tenant's documents in ascending order.
	ListDocuments(ctx context.Context, tenantID string) ([]domain.LeaseDocument, error)
	CountDocuments(ctx context.Context, tenantID string) (int, error)
	// TransitionDocument applies a guarded status update: it only succeeds
	// while the row is still in from, returning ErrInvalidTransition
	// otherwise. Guards against duplicate concurrent attempts.
	TransitionDocument(ctx context.Context, id string, from, to domain.DocumentStatus, errMessage string) error
	// ResetDocument is the operator action returning an errored document to
	// pending for a retry.
	ResetDocument(ctx context.Context, id string) error
}

// AbstractStore persists consolidated state: abstract snapshots, amendment
// records, and the rent schedule.
type AbstractStore interface {
	GetAbstract(ctx context.Context, tenantID string) (*domain.AbstractState, error)
	ListAmendments(ctx context.Context, tenantID string) ([]domain.AmendmentRecord, error)
	ListRentPeriods(ctx context.Context, tenantID string, activeOnly bool) ([]domain.RentPeriod, error)
	// CommitConsolidation applies one document's full consolidation outcome
	// in a single transaction, including the document's completed status.
	CommitConsolidation(ctx context.Context, c *domain.Consolidation) error
}

// ObjectStorage stores uploaded source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// WorkQueue publishes/consumes per-tenant consolidation work items.
type WorkQueue interface {
	PublishTenantQueued(ctx context.Context, tenantID string) error
	SubscribeTenantQueued(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor turns a stored document into content the extraction
// collaborator can consume, preferring locally decoded text.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.LeaseDocument) (domain.DocumentContent, error)
}

// TermExtractor is the external AI extraction collaborator. Implementations
// must return a fully validated result or ErrExtractionParse; transport
// failures surface as ErrTemporary after bounded retries.
type TermExtractor interface {
	Extract(ctx context.Context, req domain.ExtractionRequest) (*domain.ExtractedLeaseData, error)
}
