package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crelogic/lease-abstractor/internal/core/domain"
)

type TenantRepository struct {
	db *sql.DB
}

func NewTenantRepository(db *sql.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) CreateTenant(ctx context.Context, tenant *domain.Tenant) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO tenants (id, name, suite_number, property_name, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, tenant.ID, tenant.Name, tenant.SuiteNumber, tenant.PropertyName, tenant.CreatedAt, tenant.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

func (r *TenantRepository) GetTenant(ctx context.Context, id string) (*domain.Tenant, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, suite_number, property_name, created_at, updated_at
FROM tenants
WHERE id = $1
`, id)

	var tenant domain.Tenant
	err := row.Scan(&tenant.ID, &tenant.Name, &tenant.SuiteNumber, &tenant.PropertyName, &tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get tenant", fmt.Errorf("tenant %s", id))
		}
		return nil, fmt.Errorf("scan tenant: %w", err)
	}
	return &tenant, nil
}

func (r *TenantRepository) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	return r.listTenants(ctx, `
SELECT id, name, suite_number, property_name, created_at, updated_at
FROM tenants
ORDER BY name
`)
}

func (r *TenantRepository) ListTenantsByProperty(ctx context.Context, propertyName string) ([]domain.Tenant, error) {
	return r.listTenants(ctx, `
SELECT id, name, suite_number, property_name, created_at, updated_at
FROM tenants
WHERE property_name = $1
ORDER BY name
`, propertyName)
}

func (r *TenantRepository) listTenants(ctx context.Context, query string, args ...any) ([]domain.Tenant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Tenant, 0)
	for rows.Next() {
		var tenant domain.Tenant
		if err := rows.Scan(&tenant.ID, &tenant.Name, &tenant.SuiteNumber, &tenant.PropertyName, &tenant.CreatedAt, &tenant.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tenant row: %w", err)
		}
		out = append(out, tenant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenants: %w", err)
	}
	return out, nil
}
