package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/crelogic/lease-abstractor/internal/core/domain"
)

type AbstractRepository struct {
	db *sql.DB
}

func NewAbstractRepository(db *sql.DB) *AbstractRepository {
	return &AbstractRepository{db: db}
}

func (r *AbstractRepository) GetAbstract(ctx context.Context, tenantID string) (*domain.AbstractState, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT tenant_id, version, fields, created_at, updated_at
FROM abstract_states
WHERE tenant_id = $1
`, tenantID)

	var state domain.AbstractState
	var fieldsRaw []byte
	err := row.Scan(&state.TenantID, &state.Version, &fieldsRaw, &state.CreatedAt, &state.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get abstract", fmt.Errorf("tenant %s", tenantID))
		}
		return nil, fmt.Errorf("scan abstract: %w", err)
	}

	if err := json.Unmarshal(fieldsRaw, &state.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal abstract fields: %w", err)
	}
	if state.Fields == nil {
		state.Fields = make(map[domain.TermName]domain.ExtractedField)
	}
	return &state, nil
}

func (r *AbstractRepository) ListAmendments(ctx context.Context, tenantID string) ([]domain.AmendmentRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, tenant_id, field, original_value, new_value, source_document, effective_date, citation, created_at
FROM amendment_records
WHERE tenant_id = $1
ORDER BY created_at, field
`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list amendment records: %w", err)
	}
	defer rows.Close()

	out := make([]domain.AmendmentRecord, 0)
	for rows.Next() {
		var rec domain.AmendmentRecord
		var field string
		var originalRaw, newRaw, citationRaw []byte
		err := rows.Scan(&rec.ID, &rec.TenantID, &field, &originalRaw, &newRaw,
			&rec.SourceDocument, &rec.EffectiveDate, &citationRaw, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan amendment record: %w", err)
		}
		rec.Field = domain.TermName(field)
		if err := unmarshalFieldValue(originalRaw, &rec.OriginalValue); err != nil {
			return nil, err
		}
		if err := unmarshalFieldValue(newRaw, &rec.NewValue); err != nil {
			return nil, err
		}
		if rec.Citation, err = unmarshalCitation(citationRaw); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate amendment records: %w", err)
	}
	return out, nil
}

func (r *AbstractRepository) ListRentPeriods(ctx context.Context, tenantID string, activeOnly bool) ([]domain.RentPeriod, error) {
	query := `
SELECT id, tenant_id, lease_document_id, period_start, period_end, monthly_base_rent, annual_base_rent, rent_per_sq_ft, notes, citation, is_superseded, superseded_by, created_at
FROM rent_periods
WHERE tenant_id = $1
`
	if activeOnly {
		query += "AND is_superseded = FALSE\n"
	}
	query += "ORDER BY period_start"

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list rent periods: %w", err)
	}
	defer rows.Close()

	out := make([]domain.RentPeriod, 0)
	for rows.Next() {
		var p domain.RentPeriod
		var citationRaw []byte
		err := rows.Scan(&p.ID, &p.TenantID, &p.LeaseDocumentID, &p.PeriodStart, &p.PeriodEnd,
			&p.MonthlyBaseRent, &p.AnnualBaseRent, &p.RentPerSqFt, &p.Notes, &citationRaw,
			&p.IsSuperseded, &p.SupersededBy, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan rent period: %w", err)
		}
		if p.Citation, err = unmarshalCitation(citationRaw); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rent periods: %w", err)
	}
	return out, nil
}

// CommitConsolidation applies one document's full consolidation outcome in a
// single transaction: abstract snapshot, amendment records, rent schedule
// changes, and the document's completed status. The status update is guarded
// on the processing state so a duplicate attempt cannot double-commit.
func (r *AbstractRepository) CommitConsolidation(ctx context.Context, c *domain.Consolidation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin consolidation tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := upsertAbstract(ctx, tx, c.Abstract); err != nil {
		return err
	}
	for i := range c.Amendments {
		if err := insertAmendment(ctx, tx, &c.Amendments[i]); err != nil {
			return err
		}
	}
	for i := range c.NewPeriods {
		if err := insertRentPeriod(ctx, tx, &c.NewPeriods[i]); err != nil {
			return err
		}
	}
	for _, s := range c.SupersededPeriods {
		if err := supersedeRentPeriod(ctx, tx, s); err != nil {
			return err
		}
	}
	if err := completeDocument(ctx, tx, c.Document); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit consolidation tx: %w", err)
	}
	return nil
}

func upsertAbstract(ctx context.Context, tx *sql.Tx, state *domain.AbstractState) error {
	fieldsJSON, err := json.Marshal(state.Fields)
	if err != nil {
		return fmt.Errorf("marshal abstract fields: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO abstract_states (tenant_id, version, fields, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (tenant_id) DO UPDATE
SET version = EXCLUDED.version, fields = EXCLUDED.fields, updated_at = EXCLUDED.updated_at
`, state.TenantID, state.Version, fieldsJSON, state.CreatedAt, state.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert abstract: %w", err)
	}
	return nil
}

func insertAmendment(ctx context.Context, tx *sql.Tx, rec *domain.AmendmentRecord) error {
	originalJSON, err := json.Marshal(rec.OriginalValue)
	if err != nil {
		return fmt.Errorf("marshal amendment original value: %w", err)
	}
	newJSON, err := json.Marshal(rec.NewValue)
	if err != nil {
		return fmt.Errorf("marshal amendment new value: %w", err)
	}
	citationJSON, err := marshalCitation(rec.Citation)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO amendment_records (id, tenant_id, field, original_value, new_value, source_document, effective_date, citation, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, rec.ID, rec.TenantID, string(rec.Field), originalJSON, newJSON, rec.SourceDocument, rec.EffectiveDate, citationJSON, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert amendment record: %w", err)
	}
	return nil
}

func insertRentPeriod(ctx context.Context, tx *sql.Tx, p *domain.RentPeriod) error {
	citationJSON, err := marshalCitation(p.Citation)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO rent_periods (id, tenant_id, lease_document_id, period_start, period_end, monthly_base_rent, annual_base_rent, rent_per_sq_ft, notes, citation, is_superseded, superseded_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`, p.ID, p.TenantID, p.LeaseDocumentID, p.PeriodStart, p.PeriodEnd, p.MonthlyBaseRent,
		p.AnnualBaseRent, p.RentPerSqFt, p.Notes, citationJSON, p.IsSuperseded, p.SupersededBy, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert rent period: %w", err)
	}
	return nil
}

func supersedeRentPeriod(ctx context.Context, tx *sql.Tx, s domain.PeriodSupersession) error {
	_, err := tx.ExecContext(ctx, `
UPDATE rent_periods
SET is_superseded = TRUE, superseded_by = $2
WHERE id = $1
`, s.PeriodID, s.SupersededBy)
	if err != nil {
		return fmt.Errorf("supersede rent period: %w", err)
	}
	return nil
}

func completeDocument(ctx context.Context, tx *sql.Tx, doc *domain.LeaseDocument) error {
	warningsJSON, err := marshalWarnings(doc.Warnings)
	if err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `
UPDATE lease_documents
SET status = $2, error_message = '', raw_text = $3, warnings = $4, processed_at = $5
WHERE id = $1 AND status = $6
`, doc.ID, string(domain.StatusCompleted), doc.RawText, warningsJSON, doc.ProcessedAt, string(domain.StatusProcessing))
	if err != nil {
		return fmt.Errorf("complete lease document: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete document rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrInvalidTransition, "complete lease document",
			fmt.Errorf("document %s not in processing", doc.ID))
	}
	return nil
}

func marshalCitation(c *domain.Citation) ([]byte, error) {
	if c == nil {
		return nil, nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal citation: %w", err)
	}
	return data, nil
}

func unmarshalCitation(raw []byte) (*domain.Citation, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var c domain.Citation
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("unmarshal citation: %w", err)
	}
	return &c, nil
}

func unmarshalFieldValue(raw []byte, into *domain.FieldValue) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("unmarshal field value: %w", err)
	}
	return nil
}
