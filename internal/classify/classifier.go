// Package classify scores harvested postings against a fixed candidate
// profile using a hosted LLM backend and validates the structured verdict.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"jobscreen/internal/domain"
)

// Backend is one hosted completion API. The system prefix is constant across
// a run so prefix-caching backends can reuse it; only the user content varies
// per record.
type Backend interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
}

// ValidationError marks a structurally unusable backend response. It is a
// per-item failure: the record stays out of the ledger and is retried on the
// next run.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid screening response: " + e.Reason
}

const instructions = `You are screening job postings for a specific candidate.
Compare the posting against the candidate profile below and respond with a
single JSON object, no prose, using exactly these fields:

  "status":    one of "suitable", "maybe_suitable", "not_suitable"
  "score":     number from 0 to 10
  "gaps":      up to 5 short strings naming missing requirements (optional)
  "strengths": short strings naming strong matches (optional)
  "reasoning": one or two sentences (optional)

Candidate profile:
`

// Classifier submits one record at a time and validates the result.
type Classifier struct {
	backend Backend
	profile string
}

// New requires a non-empty profile document; that is enforced at startup by
// config loading, not here.
func New(backend Backend, profile string) *Classifier {
	return &Classifier{backend: backend, profile: profile}
}

// Classify screens a single record. Network failures and malformed responses
// are returned to the caller as per-item errors, never panics.
func (c *Classifier) Classify(ctx context.Context, rec domain.Record) (domain.Result, error) {
	system := instructions + c.profile
	user := recordPrompt(rec)

	raw, err := c.backend.Complete(ctx, system, user)
	if err != nil {
		return domain.Result{}, fmt.Errorf("screening call for %s: %w", rec.ID, err)
	}

	result, err := parseResult(raw)
	if err != nil {
		// the pipeline logs and counts rejected responses; annotate
		// with the backend so that log line names the culprit
		return domain.Result{}, fmt.Errorf("%s response: %w", c.backend.Name(), err)
	}
	return result, nil
}

func recordPrompt(rec domain.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Job posting %s\n", rec.ID)
	fmt.Fprintf(&b, "Title: %s\n", rec.Title)
	fmt.Fprintf(&b, "Organization: %s\n", rec.Organization)
	fmt.Fprintf(&b, "Location: %s\n\n", rec.Location)
	b.WriteString(rec.Body)
	return b.String()
}

// parseResult decodes and validates the backend payload. Missing status or
// score, an unknown status value, or a score outside [0,10] are all
// ValidationErrors; scores are never clamped.
func parseResult(raw string) (domain.Result, error) {
	var payload struct {
		Status    *string  `json:"status"`
		Score     *float64 `json:"score"`
		Gaps      []string `json:"gaps"`
		Reasoning string   `json:"reasoning"`
		Strengths []string `json:"strengths"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &payload); err != nil {
		return domain.Result{}, &ValidationError{Reason: "not a JSON object: " + err.Error()}
	}
	if payload.Status == nil {
		return domain.Result{}, &ValidationError{Reason: "missing status"}
	}
	if payload.Score == nil {
		return domain.Result{}, &ValidationError{Reason: "missing score"}
	}

	status := domain.Status(strings.TrimSpace(*payload.Status))
	if !status.Valid() {
		return domain.Result{}, &ValidationError{Reason: "unknown status " + string(status)}
	}
	if *payload.Score < 0 || *payload.Score > 10 {
		return domain.Result{}, &ValidationError{Reason: fmt.Sprintf("score %v outside [0,10]", *payload.Score)}
	}

	gaps := payload.Gaps
	if len(gaps) > domain.MaxGaps {
		gaps = gaps[:domain.MaxGaps]
	}
	return domain.Result{
		Status:    status,
		Score:     *payload.Score,
		Gaps:      gaps,
		Reasoning: strings.TrimSpace(payload.Reasoning),
		Strengths: payload.Strengths,
	}, nil
}

// extractJSON tolerates markdown code fences and surrounding prose around
// the JSON object, which chat backends occasionally emit despite the
// instructions.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			return raw[start : end+1]
		}
	}
	return raw
}
