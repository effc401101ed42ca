package model

import "time"

// GenerationRecord is the metadata kept about one generated password.
// The password itself is never stored.
type GenerationRecord struct {
	ID        int64
	SessionID string
	Length    int
	Classes   string
	Strength  string
	CreatedAt time.Time
}

// GenerationRecordResponse represents a history entry in API responses.
type GenerationRecordResponse struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Length    int       `json:"length"`
	Classes   []string  `json:"classes"`
	Strength  string    `json:"strength"`
	CreatedAt time.Time `json:"created_at"`
}
