package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS tenants (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	suite_number TEXT NOT NULL DEFAULT '',
	property_name TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS lease_documents (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL REFERENCES tenants(id),
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	document_order INTEGER NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	raw_text TEXT NOT NULL DEFAULT '',
	warnings JSONB NOT NULL DEFAULT '[]'::jsonb,
	uploaded_at TIMESTAMPTZ NOT NULL,
	processed_at TIMESTAMPTZ,
	UNIQUE (tenant_id, document_order)
);

CREATE TABLE IF NOT EXISTS abstract_states (
	tenant_id TEXT PRIMARY KEY REFERENCES tenants(id),
	version BIGINT NOT NULL,
	fields JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS amendment_records (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	field TEXT NOT NULL,
	original_value JSONB,
	new_value JSONB,
	source_document TEXT NOT NULL,
	effective_date TIMESTAMPTZ NOT NULL,
	citation JSONB,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS rent_periods (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	lease_document_id TEXT NOT NULL,
	period_start TIMESTAMPTZ NOT NULL,
	period_end TIMESTAMPTZ NOT NULL,
	monthly_base_rent DOUBLE PRECISION NOT NULL DEFAULT 0,
	annual_base_rent DOUBLE PRECISION NOT NULL DEFAULT 0,
	rent_per_sq_ft DOUBLE PRECISION NOT NULL DEFAULT 0,
	notes TEXT NOT NULL DEFAULT '',
	citation JSONB,
	is_superseded BOOLEAN NOT NULL DEFAULT FALSE,
	superseded_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_lease_documents_tenant_order ON lease_documents(tenant_id, document_order);
CREATE INDEX IF NOT EXISTS idx_amendment_records_tenant ON amendment_records(tenant_id, created_at);
CREATE INDEX IF NOT EXISTS idx_rent_periods_tenant_active ON rent_periods(tenant_id, is_superseded, period_start);
CREATE INDEX IF NOT EXISTS idx_tenants_property ON tenants(property_name);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
