package entity

import (
	"time"

	"github.com/google/uuid"
)

// ExtractionRun represents one processed input file for data transfer between layers.
type ExtractionRun struct {
	ID           uuid.UUID  `json:"id"`
	SourcePath   string     `json:"source_path"`
	SourceType   string     `json:"source_type"`
	ContentHash  string     `json:"content_hash"`
	Status       string     `json:"status"`
	Method       *string    `json:"method,omitempty"`
	Pages        int        `json:"pages"`
	TextBytes    int        `json:"text_bytes"`
	ContactCount int        `json:"contact_count"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// StoredContact is a Contact together with its run and position in the run's output.
type StoredContact struct {
	RunID    uuid.UUID `json:"run_id"`
	Position int       `json:"position"`
	Contact
}
