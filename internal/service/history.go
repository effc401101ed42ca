package service

import (
	"context"
	"strings"

	"github.com/fortipass/fortipass-go/internal/model"
)

// HistoryLister reads generation metadata back.
type HistoryLister interface {
	ListRecent(ctx context.Context, limit int) ([]model.GenerationRecord, error)
}

// HistoryService exposes recorded generation metadata.
type HistoryService struct {
	repo HistoryLister
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(repo HistoryLister) *HistoryService {
	return &HistoryService{repo: repo}
}

// List returns up to limit of the most recent generation records.
func (s *HistoryService) List(ctx context.Context, limit int) ([]model.GenerationRecordResponse, error) {
	records, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return recordsToResponse(records), nil
}

// recordsToResponse converts a slice of GenerationRecord to a slice of GenerationRecordResponse.
func recordsToResponse(records []model.GenerationRecord) []model.GenerationRecordResponse {
	result := make([]model.GenerationRecordResponse, len(records))
	for i, r := range records {
		var classes []string
		if r.Classes != "" {
			classes = strings.Split(r.Classes, ",")
		}
		result[i] = model.GenerationRecordResponse{
			ID:        r.ID,
			SessionID: r.SessionID,
			Length:    r.Length,
			Classes:   classes,
			Strength:  r.Strength,
			CreatedAt: r.CreatedAt,
		}
	}
	return result
}
