// Package ledger is the durable record of screening outcomes. Its on-disk
// form is a single JSON snapshot, rewritten in full on every upsert, so the
// set of processed postings is always queryable without any log replay.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"jobscreen/internal/domain"
)

// Ledger maps record IDs to their latest screening outcome. Single writer;
// every Upsert is durable before it returns.
type Ledger struct {
	path    string
	entries []domain.Entry
	index   map[string]int
}

type snapshotFile struct {
	Entries []domain.Entry `json:"entries"`
}

// Open loads the snapshot at path, or starts empty when the file does not
// exist yet.
func Open(path string) (*Ledger, error) {
	l := &Ledger{path: path, index: make(map[string]int)}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	var snap snapshotFile
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("parse ledger %s: %w", path, err)
	}
	for _, e := range snap.Entries {
		if _, dup := l.index[e.RecordID]; dup {
			continue
		}
		l.index[e.RecordID] = len(l.entries)
		l.entries = append(l.entries, e)
	}
	return l, nil
}

// Contains reports whether the record already has an outcome.
func (l *Ledger) Contains(recordID string) bool {
	_, ok := l.index[recordID]
	return ok
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Upsert writes or overwrites the entry for entry.RecordID and persists the
// whole snapshot before returning. Overwrites are last-write-wins; there is
// no history.
func (l *Ledger) Upsert(entry domain.Entry) error {
	if entry.RecordID == "" {
		return fmt.Errorf("ledger entry has empty record id")
	}
	if i, ok := l.index[entry.RecordID]; ok {
		l.entries[i] = entry
	} else {
		l.index[entry.RecordID] = len(l.entries)
		l.entries = append(l.entries, entry)
	}
	return l.persist()
}

// Snapshot returns all entries ordered by descending score. Ties keep their
// relative insertion order (stable sort), so the ordering is deterministic.
func (l *Ledger) Snapshot() []domain.Entry {
	out := make([]domain.Entry, len(l.entries))
	copy(out, l.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Result.Score > out[j].Result.Score
	})
	return out
}

// persist rewrites the snapshot file atomically: temp file, fsync, rename.
func (l *Ledger) persist() error {
	snap := snapshotFile{Entries: l.Snapshot()}
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(raw, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return fmt.Errorf("commit ledger: %w", err)
	}
	return nil
}
