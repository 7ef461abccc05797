package models

import (
	"encoding/json"
	"time"
)

// Classification run statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusPartial   = "partial"
)

// Model type tags for history entries.
const (
	ModelTypeSystem = "system"
	ModelTypeCustom = "custom"
)

// ClassificationHistory is one persisted classification run. ResultCount must
// always equal the length of the serialized results list, and ResultsJSON
// must be valid JSON whenever Status is "completed". UserID is nullable to
// allow guest runs at the schema level, though every current endpoint writes
// with an authenticated user.
type ClassificationHistory struct {
	ID          int64     `db:"id" json:"id"`
	UserID      *int64    `db:"user_id" json:"user_id"`
	Timestamp   time.Time `db:"timestamp" json:"timestamp"`
	ModelName   string    `db:"model_name" json:"model_name"`
	ModelType   string    `db:"model_type" json:"model_type"`
	SourceType  string    `db:"source_type" json:"source_type"`
	IssueURL    string    `db:"issue_url" json:"issue_url"`
	IssueTitle  string    `db:"issue_title" json:"issue_title"`
	IssueNumber string    `db:"issue_number" json:"issue_number"`
	ResultCount int       `db:"result_count" json:"result_count"`
	ResultsJSON string    `db:"results_json" json:"results_json"`
	Status      string    `db:"status" json:"status"`
}

// Results decodes the serialized prediction list. A malformed payload (only
// possible for non-completed entries) yields an empty slice.
func (h *ClassificationHistory) Results() []PredictionResult {
	if h.ResultsJSON == "" {
		return []PredictionResult{}
	}
	var results []PredictionResult
	if err := json.Unmarshal([]byte(h.ResultsJSON), &results); err != nil {
		return []PredictionResult{}
	}
	return results
}
