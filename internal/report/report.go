// Package report renders the two derived views of the ledger: a grouped
// detail report and a compact ranking. Both are pure functions of the
// current snapshot, safe to delete and rebuild at any time.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"jobscreen/internal/domain"
)

const (
	DetailFile  = "report.md"
	RankingFile = "ranking.md"
)

// Writer renders reports into a directory.
type Writer struct {
	dir string
}

func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Generate rewrites both reports from the snapshot. The records map is
// optional enrichment (titles, organizations); entries missing from it fall
// back to their ID.
func (w *Writer) Generate(entries []domain.Entry, records map[string]domain.Record) error {
	if err := os.WriteFile(filepath.Join(w.dir, DetailFile), []byte(Detail(entries, records)), 0o644); err != nil {
		return fmt.Errorf("write detail report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, RankingFile), []byte(Ranking(entries, records)), 0o644); err != nil {
		return fmt.Errorf("write ranking report: %w", err)
	}
	return nil
}

// Detail renders the grouped report: suitable first, then maybe-suitable,
// each with strengths, gaps and reasoning. Not-suitable entries appear only
// as a count.
func Detail(entries []domain.Entry, records map[string]domain.Record) string {
	var suitable, maybe []domain.Entry
	notSuitable := 0
	for _, e := range entries {
		switch e.Result.Status {
		case domain.StatusSuitable:
			suitable = append(suitable, e)
		case domain.StatusMaybeSuitable:
			maybe = append(maybe, e)
		default:
			notSuitable++
		}
	}

	var b strings.Builder
	b.WriteString("# Screening report\n\n")
	fmt.Fprintf(&b, "%d screened: %d suitable, %d maybe suitable, %d not suitable\n",
		len(entries), len(suitable), len(maybe), notSuitable)

	writeGroup(&b, "Suitable", suitable, records)
	writeGroup(&b, "Maybe suitable", maybe, records)
	return b.String()
}

func writeGroup(b *strings.Builder, heading string, group []domain.Entry, records map[string]domain.Record) {
	fmt.Fprintf(b, "\n## %s\n", heading)
	if len(group) == 0 {
		b.WriteString("\n(none)\n")
		return
	}
	for _, e := range group {
		fmt.Fprintf(b, "\n### %s — %.1f/10\n\n", entryTitle(e, records), e.Result.Score)
		fmt.Fprintf(b, "%s\n", e.URL)
		if len(e.Result.Strengths) > 0 {
			b.WriteString("\nStrengths:\n")
			for _, s := range e.Result.Strengths {
				fmt.Fprintf(b, "- %s\n", s)
			}
		}
		if len(e.Result.Gaps) > 0 {
			b.WriteString("\nGaps:\n")
			for _, g := range e.Result.Gaps {
				fmt.Fprintf(b, "- %s\n", g)
			}
		}
		if e.Result.Reasoning != "" {
			fmt.Fprintf(b, "\n%s\n", e.Result.Reasoning)
		}
	}
}

// Ranking renders every entry as one line, highest score first (the
// snapshot is already in that order).
func Ranking(entries []domain.Entry, records map[string]domain.Record) string {
	var b strings.Builder
	b.WriteString("# Ranking\n\n")
	for i, e := range entries {
		fmt.Fprintf(&b, "%3d. %4.1f  %-14s  %s\n",
			i+1, e.Result.Score, e.Result.Status, entryTitle(e, records))
	}
	return b.String()
}

func entryTitle(e domain.Entry, records map[string]domain.Record) string {
	if rec, ok := records[e.RecordID]; ok && rec.Title != "" {
		if rec.Organization != "" {
			return rec.Title + " @ " + rec.Organization
		}
		return rec.Title
	}
	return e.RecordID
}
