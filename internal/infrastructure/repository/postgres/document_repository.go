package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/crelogic/lease-abstractor/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, tenant_id, name, kind, document_order, mime_type, storage_path, status, error_message, raw_text, warnings, uploaded_at, processed_at`

func (r *DocumentRepository) CreateDocument(ctx context.Context, doc *domain.LeaseDocument) error {
	warningsJSON, err := marshalWarnings(doc.Warnings)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO lease_documents (`+documentColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`,
		doc.ID, doc.TenantID, doc.Name, doc.Kind, doc.Order, doc.MimeType, doc.StoragePath,
		string(doc.Status), doc.ErrorMessage, doc.RawText, warningsJSON, doc.UploadedAt, doc.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lease document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetDocument(ctx context.Context, id string) (*domain.LeaseDocument, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM lease_documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get lease document", fmt.Errorf("document %s", id))
		}
		return nil, err
	}
	return doc, nil
}

func (r *DocumentRepository) ListDocuments(ctx context.Context, tenantID string) ([]domain.LeaseDocument, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+documentColumns+`
FROM lease_documents
WHERE tenant_id = $1
ORDER BY document_order
`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list lease documents: %w", err)
	}
	defer rows.Close()

	out := make([]domain.LeaseDocument, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lease documents: %w", err)
	}
	return out, nil
}

func (r *DocumentRepository) CountDocuments(ctx context.Context, tenantID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM lease_documents WHERE tenant_id = $1
`, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count lease documents: %w", err)
	}
	return count, nil
}

// TransitionDocument applies a guarded status update: the row must still be
// in the expected prior state, otherwise a concurrent attempt already moved
// it and the caller gets ErrInvalidTransition.
func (r *DocumentRepository) TransitionDocument(ctx context.Context, id string, from, to domain.DocumentStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE lease_documents
SET status = $3, error_message = $4
WHERE id = $1 AND status = $2
`, id, string(from), string(to), errMessage)
	if err != nil {
		return fmt.Errorf("transition lease document: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition rows affected: %w", err)
	}
	if rows == 0 {
		if _, getErr := r.GetDocument(ctx, id); getErr != nil {
			return getErr
		}
		return domain.WrapError(domain.ErrInvalidTransition, "transition lease document",
			fmt.Errorf("document %s not in %s", id, from))
	}
	return nil
}

// ResetDocument is the operator action returning an errored document to
// pending so the chain can be retried.
func (r *DocumentRepository) ResetDocument(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE lease_documents
SET status = $2, error_message = ''
WHERE id = $1 AND status = $3
`, id, string(domain.StatusPending), string(domain.StatusError))
	if err != nil {
		return fmt.Errorf("reset lease document: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reset rows affected: %w", err)
	}
	if rows == 0 {
		if _, getErr := r.GetDocument(ctx, id); getErr != nil {
			return getErr
		}
		return domain.WrapError(domain.ErrInvalidTransition, "reset lease document",
			fmt.Errorf("document %s is not in error", id))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.LeaseDocument, error) {
	var doc domain.LeaseDocument
	var status string
	var warningsRaw []byte
	var processedAt sql.NullTime

	err := row.Scan(
		&doc.ID, &doc.TenantID, &doc.Name, &doc.Kind, &doc.Order, &doc.MimeType, &doc.StoragePath,
		&status, &doc.ErrorMessage, &doc.RawText, &warningsRaw, &doc.UploadedAt, &processedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.Status = domain.DocumentStatus(status)
	if processedAt.Valid {
		t := processedAt.Time
		doc.ProcessedAt = &t
	}
	if len(warningsRaw) > 0 {
		if err := json.Unmarshal(warningsRaw, &doc.Warnings); err != nil {
			return nil, fmt.Errorf("unmarshal document warnings: %w", err)
		}
	}
	return &doc, nil
}

func marshalWarnings(warnings []domain.DataQualityWarning) ([]byte, error) {
	if warnings == nil {
		warnings = []domain.DataQualityWarning{}
	}
	data, err := json.Marshal(warnings)
	if err != nil {
		return nil, fmt.Errorf("marshal document warnings: %w", err)
	}
	return data, nil
}
