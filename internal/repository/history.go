package repository

import (
	"context"
	"database/sql"

	"github.com/fortipass/fortipass-go/internal/model"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

const createHistoryTable = `
	CREATE TABLE IF NOT EXISTS generation_history (
		id         BIGINT      NOT NULL AUTO_INCREMENT PRIMARY KEY,
		session_id CHAR(36)    NOT NULL,
		length     INT         NOT NULL,
		classes    VARCHAR(64) NOT NULL,
		strength   VARCHAR(16) NOT NULL,
		created_at TIMESTAMP   NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_generation_history_created_at (created_at)
	)`

// HistoryRepository persists generation metadata.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// EnsureSchema creates the history table if it does not exist.
func (r *HistoryRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, createHistoryTable)
	return err
}

// Record inserts a generation record and sets the generated ID on it.
func (r *HistoryRepository) Record(ctx context.Context, rec *model.GenerationRecord) error {
	query := `INSERT INTO generation_history (session_id, length, classes, strength) VALUES (?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, rec.SessionID, rec.Length, rec.Classes, rec.Strength)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	rec.ID = id
	return nil
}

// ListRecent retrieves the most recent generation records, newest first.
func (r *HistoryRepository) ListRecent(ctx context.Context, limit int) ([]model.GenerationRecord, error) {
	query := `SELECT id, session_id, length, classes, strength, created_at
		FROM generation_history ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.GenerationRecord
	for rows.Next() {
		var rec model.GenerationRecord
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.Length, &rec.Classes, &rec.Strength, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// ClampLimit bounds a requested page size to (0, MaxHistoryLimit].
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}
