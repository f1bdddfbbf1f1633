package store

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"jobscreen/internal/domain"
)

// FileStore keeps one <id>.txt per posting: a small key/value header block,
// a blank line, then the normalized body text.
type FileStore struct {
	dir string
}

var _ RecordStore = (*FileStore)(nil)

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create record dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".txt")
}

// Contains reports whether a record file exists for the ID.
func (s *FileStore) Contains(_ context.Context, id string) (bool, error) {
	_, err := os.Stat(s.path(id))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Save writes the record durably before returning. Existing IDs are left
// untouched: records are immutable once written.
func (s *FileStore) Save(ctx context.Context, rec domain.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("record has empty id")
	}
	exists, err := s.Contains(ctx, rec.ID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	tmp, err := os.CreateTemp(s.dir, rec.ID+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(encodeRecord(rec)); err != nil {
		tmp.Close()
		return fmt.Errorf("write record %s: %w", rec.ID, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync record %s: %w", rec.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.path(rec.ID)); err != nil {
		return fmt.Errorf("commit record %s: %w", rec.ID, err)
	}
	return nil
}

// List loads every record, sorted by ID.
func (s *FileStore) List(_ context.Context) ([]domain.Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read record dir: %w", err)
	}

	var records []domain.Record
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".txt") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("read record %s: %w", name, err)
		}
		rec := decodeRecord(strings.TrimSuffix(name, ".txt"), string(raw))
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func encodeRecord(rec domain.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", sanitizeHeader(rec.Title))
	fmt.Fprintf(&b, "Organization: %s\n", sanitizeHeader(rec.Organization))
	fmt.Fprintf(&b, "Location: %s\n", sanitizeHeader(rec.Location))
	fmt.Fprintf(&b, "URL: %s\n", sanitizeHeader(rec.SourceURL))
	b.WriteString("\n")
	b.WriteString(rec.Body)
	b.WriteString("\n")
	return b.String()
}

func decodeRecord(id, raw string) domain.Record {
	rec := domain.Record{ID: id}
	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var body []string
	inBody := false
	for scanner.Scan() {
		line := scanner.Text()
		if inBody {
			body = append(body, line)
			continue
		}
		if line == "" {
			inBody = true
			continue
		}
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			// malformed header line, treat the rest as body
			inBody = true
			body = append(body, line)
			continue
		}
		switch key {
		case "Title":
			rec.Title = value
		case "Organization":
			rec.Organization = value
		case "Location":
			rec.Location = value
		case "URL":
			rec.SourceURL = value
		}
	}
	rec.Body = strings.TrimRight(strings.Join(body, "\n"), "\n")
	return rec
}

// sanitizeHeader keeps header values on one line.
func sanitizeHeader(v string) string {
	return strings.Join(strings.Fields(v), " ")
}
