package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crelogic/lease-abstractor/internal/core/domain"
	"github.com/crelogic/lease-abstractor/internal/core/ports"
)

type IngestLeaseUseCase struct {
	tenants ports.TenantStore
	docs    ports.DocumentStore
	storage ports.ObjectStorage
	queue   ports.WorkQueue
	now     func() time.Time
}

func NewIngestLeaseUseCase(
	tenants ports.TenantStore,
	docs ports.DocumentStore,
	storage ports.ObjectStorage,
	queue ports.WorkQueue,
) *IngestLeaseUseCase {
	return &IngestLeaseUseCase{
		tenants: tenants,
		docs:    docs,
		storage: storage,
		queue:   queue,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Upload appends a batch of documents to the tenant's chain in upload order.
// The first document a tenant ever receives is the original lease; every
// later one is the next amendment. One work item is queued per batch; the
// worker drains the tenant's queue in document order.
func (uc *IngestLeaseUseCase) Upload(
	ctx context.Context,
	tenantID string,
	uploads []ports.DocumentUpload,
) ([]domain.LeaseDocument, error) {
	if len(uploads) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload documents", errors.New("no files in batch"))
	}

	if _, err := uc.tenants.GetTenant(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("load tenant: %w", err)
	}

	startOrder, err := uc.docs.CountDocuments(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("count existing documents: %w", err)
	}

	created := make([]domain.LeaseDocument, 0, len(uploads))
	for i, upload := range uploads {
		id := uuid.NewString()
		storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(upload.Filename))

		if err := uc.storage.Save(ctx, storageKey, upload.Body); err != nil {
			return nil, fmt.Errorf("save to object storage: %w", err)
		}

		order := startOrder + i
		doc := domain.LeaseDocument{
			ID:          id,
			TenantID:    tenantID,
			Name:        upload.Filename,
			Kind:        domain.DocumentKindForOrder(order),
			Order:       order,
			MimeType:    upload.MimeType,
			StoragePath: storageKey,
			Status:      domain.StatusPending,
			UploadedAt:  uc.now(),
		}
		if err := uc.docs.CreateDocument(ctx, &doc); err != nil {
			return nil, fmt.Errorf("create document record: %w", err)
		}
		created = append(created, doc)
	}

	if err := uc.queue.PublishTenantQueued(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("publish consolidation work item: %w", err)
	}

	return created, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
