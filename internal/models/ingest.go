package models

import (
	"time"

	"github.com/google/uuid"
)

// IngestReport summarizes one quote/market-cap ingest run
type IngestReport struct {
	JobID       uuid.UUID `json:"job_id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	QuotesSaved int       `json:"quotes_saved"`
	Succeeded   []string  `json:"succeeded"`
	// Failed maps ticker to the final error after retries were exhausted
	Failed map[string]string `json:"failed,omitempty"`
}
