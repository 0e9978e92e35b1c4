package ports

import (
	"context"
	"io"

	"github.com/crelogic/lease-abstractor/internal/core/domain"
)

// DocumentUpload is one file in an upload batch.
type DocumentUpload struct {
	Filename string
	MimeType string
	Body     io.Reader
}

// LeaseIngestor is the inbound contract for document upload orchestration.
type LeaseIngestor interface {
	Upload(ctx context.Context, tenantID string, uploads []DocumentUpload) ([]domain.LeaseDocument, error)
}

// TenantConsolidator drives one tenant's consolidation pipeline.
type TenantConsolidator interface {
	// ProcessNext consolidates the next eligible document, reporting whether
	// one was picked up. An idle or blocked queue is (false, nil).
	ProcessNext(ctx context.Context, tenantID string) (bool, error)
	// ProcessAll drains the tenant's queue, returning the number of
	// documents consolidated before it went idle or failed.
	ProcessAll(ctx context.Context, tenantID string) (int, error)
}

// AbstractReader assembles the consolidated read model for a tenant.
type AbstractReader interface {
	GetAbstractView(ctx context.Context, tenantID string) (*domain.AbstractView, error)
}

// AbstractExporter renders consolidated state for download.
type AbstractExporter interface {
	ExportAbstract(ctx context.Context, tenantID string) (data []byte, filename string, err error)
	ExportRentRoll(ctx context.Context, propertyName string) (data []byte, filename string, err error)
}
