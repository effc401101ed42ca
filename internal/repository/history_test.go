package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/fortipass/fortipass-go/internal/model"
)

func TestNewHistoryRepository(t *testing.T) {
	repo := NewHistoryRepository(nil)
	if repo == nil {
		t.Fatal("expected non-nil HistoryRepository")
	}
	if repo.db != nil {
		t.Fatal("expected nil db when constructed with nil")
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-1, DefaultHistoryLimit},
		{0, DefaultHistoryLimit},
		{1, 1},
		{MaxHistoryLimit, MaxHistoryLimit},
		{MaxHistoryLimit + 1, MaxHistoryLimit},
	}
	for _, tt := range tests {
		if got := ClampLimit(tt.in); got != tt.want {
			t.Errorf("ClampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNewDBInvalidDSN(t *testing.T) {
	if _, err := NewDB(context.Background(), "not a dsn"); err == nil {
		t.Fatal("expected error for malformed dsn")
	}
}

func newMockRepo(t *testing.T) (*HistoryRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewHistoryRepository(db), mock
}

func TestEnsureSchema(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS generation_history")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRecordSetsInsertID(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO generation_history (session_id, length, classes, strength) VALUES (?, ?, ?, ?)")).
		WithArgs("session-1", 16, "letters,digits", "strong").
		WillReturnResult(sqlmock.NewResult(42, 1))

	rec := &model.GenerationRecord{
		SessionID: "session-1",
		Length:    16,
		Classes:   "letters,digits",
		Strength:  "strong",
	}
	if err := repo.Record(context.Background(), rec); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec.ID != 42 {
		t.Errorf("expected ID 42, got %d", rec.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRecordExecError(t *testing.T) {
	repo, mock := newMockRepo(t)

	dbErr := errors.New("connection refused")
	mock.ExpectExec("INSERT INTO generation_history").WillReturnError(dbErr)

	rec := &model.GenerationRecord{SessionID: "session-1", Length: 12}
	if err := repo.Record(context.Background(), rec); !errors.Is(err, dbErr) {
		t.Fatalf("expected %v, got %v", dbErr, err)
	}
	if rec.ID != 0 {
		t.Errorf("expected ID to stay 0 on failure, got %d", rec.ID)
	}
}

func TestListRecent(t *testing.T) {
	newer := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)
	columns := []string{"id", "session_id", "length", "classes", "strength", "created_at"}

	tests := []struct {
		name      string
		limit     int
		wantBound int
	}{
		{"default when zero", 0, DefaultHistoryLimit},
		{"passed through", 2, 2},
		{"clamped to max", MaxHistoryLimit + 10, MaxHistoryLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)

			mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC LIMIT ?")).
				WithArgs(tt.wantBound).
				WillReturnRows(sqlmock.NewRows(columns).
					AddRow(int64(7), "session-1", 20, "letters,digits,special", "strong", newer).
					AddRow(int64(3), "session-1", 8, "digits", "weak", older))

			records, err := repo.ListRecent(context.Background(), tt.limit)
			if err != nil {
				t.Fatalf("ListRecent: %v", err)
			}
			if len(records) != 2 {
				t.Fatalf("expected 2 records, got %d", len(records))
			}
			if records[0].ID != 7 || records[1].ID != 3 {
				t.Errorf("expected newest first [7 3], got [%d %d]", records[0].ID, records[1].ID)
			}
			if !records[0].CreatedAt.Equal(newer) || records[0].Classes != "letters,digits,special" {
				t.Errorf("unexpected first record: %+v", records[0])
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestListRecentEmpty(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM generation_history").
		WithArgs(DefaultHistoryLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "length", "classes", "strength", "created_at"}))

	records, err := repo.ListRecent(context.Background(), -5)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}
