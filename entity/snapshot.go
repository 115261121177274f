package entity

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/jonwraymond/kfin/observe"
)

// Snapshot is the on-disk form of a company list.
type Snapshot struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Companies   []CompanyRecord `json:"companies"`
}

// ReadSnapshot decodes a snapshot from r. It returns false, rather than an
// error, when the input is not a well-formed snapshot: invalid JSON, a
// missing companies list, or any record without a valid corp_code and name.
func ReadSnapshot(r io.Reader) (Snapshot, bool) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, false
	}
	if s.Companies == nil {
		return Snapshot{}, false
	}
	for _, rec := range s.Companies {
		if !rec.valid() {
			return Snapshot{}, false
		}
	}
	return s, true
}

// WriteSnapshot encodes records to w.
func WriteSnapshot(w io.Writer, records []CompanyRecord, generatedAt time.Time) error {
	if records == nil {
		records = []CompanyRecord{}
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(Snapshot{GeneratedAt: generatedAt.UTC(), Companies: records}); err != nil {
		return fmt.Errorf("entity: encode snapshot: %w", err)
	}
	return nil
}

// SaveSnapshotFile writes records to path, creating its directory. The file
// is replaced atomically so a crash never leaves a truncated snapshot.
func SaveSnapshotFile(path string, records []CompanyRecord, generatedAt time.Time) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("entity: create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("entity: create temp snapshot: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := WriteSnapshot(tmp, records, generatedAt); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("entity: close temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("entity: replace snapshot: %w", err)
	}
	return nil
}

// LoadSnapshotFile reads the snapshot at path. A missing or malformed file
// returns false.
func LoadSnapshotFile(path string) (Snapshot, bool) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, false
	}
	defer f.Close()
	return ReadSnapshot(f)
}

// LoadSnapshot loads the snapshot at path into the index. On a missing or
// malformed file it logs, leaves the index untouched and returns false, so
// callers can fall back to an empty or remote source.
func (x *Index) LoadSnapshot(path string) bool {
	s, ok := LoadSnapshotFile(path)
	if !ok {
		x.opts.Logger.Warn(context.Background(), "company snapshot unusable",
			observe.Field{Key: "path", Value: path},
		)
		return false
	}
	n := x.Load(s.Companies)
	x.opts.Logger.Debug(context.Background(), "company snapshot loaded",
		observe.Field{Key: "path", Value: path},
		observe.Field{Key: "companies", Value: n},
		observe.Field{Key: "generated_at", Value: s.GeneratedAt.Format(time.RFC3339)},
	)
	return true
}
