package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/tashrique/cl-rag/internal/core/domain"
)

func newCatalogWithMock(t *testing.T) (*IngestCatalog, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &IngestCatalog{db: db}, mock, func() { _ = db.Close() }
}

func TestRecordOutcomeUpserts(t *testing.T) {
	catalog, mock, done := newCatalogWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO ingest_outcomes").
		WithArgs("Berkeley", "doc-1", string(domain.OutcomeChunked), "2/2 chunks stored", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	doc := domain.Document{ID: "doc-1", Filename: "Berkeley"}
	if err := catalog.RecordOutcome(context.Background(), doc, domain.OutcomeChunked, "2/2 chunks stored"); err != nil {
		t.Fatalf("RecordOutcome() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordOutcomeWrapsDBError(t *testing.T) {
	catalog, mock, done := newCatalogWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO ingest_outcomes").
		WillReturnError(errors.New("connection refused"))

	err := catalog.RecordOutcome(context.Background(), domain.Document{Filename: "x"}, domain.OutcomeSkipped, "")
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestCountByOutcomeGroupsRows(t *testing.T) {
	catalog, mock, done := newCatalogWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"outcome", "count"}).
		AddRow("embedded", 7).
		AddRow("chunked", 2).
		AddRow("skipped", 1)
	mock.ExpectQuery("SELECT outcome, COUNT").WillReturnRows(rows)

	counts, err := catalog.CountByOutcome(context.Background())
	if err != nil {
		t.Fatalf("CountByOutcome() error = %v", err)
	}
	if counts[domain.OutcomeEmbedded] != 7 || counts[domain.OutcomeChunked] != 2 || counts[domain.OutcomeSkipped] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
