package domain

import "time"

// Record holds one harvested job posting. Records are immutable once
// persisted: the store never edits an existing ID in place.
type Record struct {
	ID           string
	Title        string
	Organization string
	Location     string
	Body         string
	SourceURL    string
}

// Status is the screening verdict for a posting.
type Status string

const (
	StatusSuitable      Status = "suitable"
	StatusMaybeSuitable Status = "maybe_suitable"
	StatusNotSuitable   Status = "not_suitable"
)

// Valid reports whether the status is one of the three screening verdicts.
func (s Status) Valid() bool {
	switch s {
	case StatusSuitable, StatusMaybeSuitable, StatusNotSuitable:
		return true
	}
	return false
}

// Result is the validated response of the screening backend for one record.
type Result struct {
	Status    Status   `json:"status"`
	Score     float64  `json:"score"`
	Gaps      []string `json:"gaps,omitempty"`
	Reasoning string   `json:"reasoning,omitempty"`
	Strengths []string `json:"strengths,omitempty"`
}

// MaxGaps bounds the gaps list accepted from the backend.
const MaxGaps = 5

// Entry is one ledger row: a record ID with its latest screening outcome.
// At most one entry exists per record; re-screening overwrites it.
type Entry struct {
	RecordID     string    `json:"record_id"`
	URL          string    `json:"url"`
	ClassifiedAt time.Time `json:"classified_at"`
	Result       Result    `json:"result"`
}
