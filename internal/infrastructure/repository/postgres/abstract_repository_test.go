package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/crelogic/lease-abstractor/internal/core/domain"
)

func TestAbstractRepositoryGetAbstractNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewAbstractRepository(db)
	mock.ExpectQuery("FROM abstract_states").
		WithArgs("t-1").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetAbstract(context.Background(), "t-1")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want not found kind", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAbstractRepositoryGetAbstractDecodesFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewAbstractRepository(db)
	fields := `{"baseYear": {"value": "2023", "citation": {"document": "Lease", "section": "Article 5"}}}`
	rows := sqlmock.NewRows([]string{"tenant_id", "version", "fields", "created_at", "updated_at"}).
		AddRow("t-1", int64(2), []byte(fields), time.Now(), time.Now())
	mock.ExpectQuery("FROM abstract_states").
		WithArgs("t-1").
		WillReturnRows(rows)

	state, err := repo.GetAbstract(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("GetAbstract() error = %v", err)
	}
	if state.Version != 2 {
		t.Fatalf("version = %d", state.Version)
	}
	field, ok := state.Field(domain.TermBaseYear)
	if !ok {
		t.Fatalf("expected baseYear field")
	}
	if field.Value.AsString() != "2023" {
		t.Fatalf("baseYear = %+v", field)
	}
	if field.Citation == nil || field.Citation.Section != "Article 5" {
		t.Fatalf("citation = %+v", field.Citation)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAbstractRepositoryListRentPeriodsActiveFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewAbstractRepository(db)
	rows := sqlmock.NewRows([]string{
		"id", "tenant_id", "lease_document_id", "period_start", "period_end",
		"monthly_base_rent", "annual_base_rent", "rent_per_sq_ft", "notes",
		"citation", "is_superseded", "superseded_by", "created_at",
	}).AddRow("p-1", "t-1", "d-1", time.Now(), time.Now().AddDate(1, 0, 0),
		40000.0, 480000.0, 32.0, "", nil, false, "", time.Now())

	mock.ExpectQuery("is_superseded = FALSE").
		WithArgs("t-1").
		WillReturnRows(rows)

	periods, err := repo.ListRentPeriods(context.Background(), "t-1", true)
	if err != nil {
		t.Fatalf("ListRentPeriods() error = %v", err)
	}
	if len(periods) != 1 || periods[0].IsSuperseded {
		t.Fatalf("periods = %+v", periods)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func consolidationFixture(now time.Time) *domain.Consolidation {
	state := domain.NewAbstractState("t-1", now)
	state.Version = 2
	state.Fields[domain.TermBaseYear] = domain.ExtractedField{Value: domain.StringValue("2026")}
	processed := now
	return &domain.Consolidation{
		Document: &domain.LeaseDocument{
			ID:          "d-2",
			TenantID:    "t-1",
			Name:        "First Amendment.pdf",
			Status:      domain.StatusProcessing,
			RawText:     "amendment text",
			ProcessedAt: &processed,
		},
		Abstract: state,
		Amendments: []domain.AmendmentRecord{{
			ID:             "a-1",
			TenantID:       "t-1",
			Field:          domain.TermBaseYear,
			OriginalValue:  domain.StringValue("2023"),
			NewValue:       domain.StringValue("2026"),
			SourceDocument: "d-2",
			EffectiveDate:  now,
			CreatedAt:      now,
		}},
		NewPeriods: []domain.RentPeriod{{
			ID:              "p-2",
			TenantID:        "t-1",
			LeaseDocumentID: "d-2",
			PeriodStart:     now,
			PeriodEnd:       now.AddDate(1, 0, 0),
			MonthlyBaseRent: 42000,
			AnnualBaseRent:  504000,
			CreatedAt:       now,
		}},
		SupersededPeriods: []domain.PeriodSupersession{{PeriodID: "p-1", SupersededBy: "p-2"}},
	}
}

func TestAbstractRepositoryCommitConsolidationIsTransactional(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewAbstractRepository(db)
	c := consolidationFixture(time.Now())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO abstract_states").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO amendment_records").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO rent_periods").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE rent_periods").
		WithArgs("p-1", "p-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE lease_documents").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.CommitConsolidation(context.Background(), c); err != nil {
		t.Fatalf("CommitConsolidation() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAbstractRepositoryCommitRollsBackOnStatusConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewAbstractRepository(db)
	c := consolidationFixture(time.Now())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO abstract_states").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO amendment_records").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO rent_periods").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE rent_periods").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE lease_documents").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = repo.CommitConsolidation(context.Background(), c)
	if !domain.IsKind(err, domain.ErrInvalidTransition) {
		t.Fatalf("error = %v, want invalid transition kind", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
