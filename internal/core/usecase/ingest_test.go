package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/crelogic/lease-abstractor/internal/core/domain"
	"github.com/crelogic/lease-abstractor/internal/core/ports"
)

type ingestDocStoreFake struct {
	existing  int
	created   []domain.LeaseDocument
	createErr error
}

func (f *ingestDocStoreFake) CreateDocument(_ context.Context, doc *domain.LeaseDocument) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, *doc)
	return nil
}

func (f *ingestDocStoreFake) GetDocument(context.Context, string) (*domain.LeaseDocument, error) {
	return nil, domain.WrapError(domain.ErrNotFound, "get document", errors.New("missing"))
}

func (f *ingestDocStoreFake) ListDocuments(context.Context, string) ([]domain.LeaseDocument, error) {
	return nil, nil
}

func (f *ingestDocStoreFake) CountDocuments(context.Context, string) (int, error) {
	return f.existing + len(f.created), nil
}

func (f *ingestDocStoreFake) TransitionDocument(context.Context, string, domain.DocumentStatus, domain.DocumentStatus, string) error {
	return nil
}

func (f *ingestDocStoreFake) ResetDocument(context.Context, string) error { return nil }

type storageFake struct {
	saved   map[string][]byte
	saveErr error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.saved == nil {
		f.saved = make(map[string][]byte)
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.saved[key] = raw
	return nil
}

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, domain.WrapError(domain.ErrNotFound, "open object", errors.New("missing"))
}

type queueFake struct {
	published  []string
	publishErr error
}

func (f *queueFake) PublishTenantQueued(_ context.Context, tenantID string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, tenantID)
	return nil
}

func (f *queueFake) SubscribeTenantQueued(context.Context, func(context.Context, string) error) error {
	return nil
}

func upload(name, mimeType, content string) ports.DocumentUpload {
	return ports.DocumentUpload{Filename: name, MimeType: mimeType, Body: bytes.NewBufferString(content)}
}

func TestUploadAssignsSequentialOrders(t *testing.T) {
	docs := &ingestDocStoreFake{}
	storage := &storageFake{}
	queue := &queueFake{}
	uc := NewIngestLeaseUseCase(&tenantStoreFake{tenant: &domain.Tenant{ID: "t1"}}, docs, storage, queue)

	created, err := uc.Upload(context.Background(), "t1", []ports.DocumentUpload{
		upload("Original Lease.pdf", "application/pdf", "original"),
		upload("First Amendment.pdf", "application/pdf", "amendment"),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created %d documents", len(created))
	}
	if created[0].Order != 0 || created[0].Kind != "original" {
		t.Fatalf("first document = %+v", created[0])
	}
	if created[1].Order != 1 || created[1].Kind != "amendment_1" {
		t.Fatalf("second document = %+v", created[1])
	}
	for _, doc := range created {
		if doc.Status != domain.StatusPending {
			t.Fatalf("document created in status %s", doc.Status)
		}
		if _, ok := storage.saved[doc.StoragePath]; !ok {
			t.Fatalf("document %s not saved to storage", doc.ID)
		}
	}
	// One work item per batch.
	if len(queue.published) != 1 || queue.published[0] != "t1" {
		t.Fatalf("published = %+v", queue.published)
	}
}

func TestUploadContinuesExistingChain(t *testing.T) {
	docs := &ingestDocStoreFake{existing: 2}
	uc := NewIngestLeaseUseCase(&tenantStoreFake{tenant: &domain.Tenant{ID: "t1"}}, docs, &storageFake{}, &queueFake{})

	created, err := uc.Upload(context.Background(), "t1", []ports.DocumentUpload{
		upload("Second Amendment.pdf", "application/pdf", "amendment"),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if created[0].Order != 2 || created[0].Kind != "amendment_2" {
		t.Fatalf("document = %+v", created[0])
	}
}

func TestUploadRejectsEmptyBatch(t *testing.T) {
	uc := NewIngestLeaseUseCase(&tenantStoreFake{tenant: &domain.Tenant{ID: "t1"}}, &ingestDocStoreFake{}, &storageFake{}, &queueFake{})

	_, err := uc.Upload(context.Background(), "t1", nil)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want invalid input", err)
	}
}

func TestUploadUnknownTenant(t *testing.T) {
	uc := NewIngestLeaseUseCase(&tenantStoreFake{}, &ingestDocStoreFake{}, &storageFake{}, &queueFake{})

	_, err := uc.Upload(context.Background(), "ghost", []ports.DocumentUpload{
		upload("lease.pdf", "application/pdf", "x"),
	})
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want not found", err)
	}
}

func TestUploadSanitizesStorageKey(t *testing.T) {
	storage := &storageFake{}
	uc := NewIngestLeaseUseCase(&tenantStoreFake{tenant: &domain.Tenant{ID: "t1"}}, &ingestDocStoreFake{}, storage, &queueFake{})

	created, err := uc.Upload(context.Background(), "t1", []ports.DocumentUpload{
		upload("../weird name (final).pdf", "application/pdf", "x"),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	key := created[0].StoragePath
	if strings.ContainsAny(key, " ()/") || strings.Contains(key, "..") {
		t.Fatalf("storage key not sanitized: %q", key)
	}
}
