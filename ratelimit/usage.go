package ratelimit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// usageFile is the on-disk form of a day's usage.
type usageFile struct {
	Day  string `json:"day"`
	Used int    `json:"used"`
}

// LoadUsage restores usage saved by SaveUsage. A missing file is not an
// error; a stale day is ignored by Restore.
func (l *Limiter) LoadUsage(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("ratelimit: read usage: %w", err)
	}
	var u usageFile
	if err := json.Unmarshal(data, &u); err != nil {
		return fmt.Errorf("ratelimit: decode usage %s: %w", path, err)
	}
	l.Restore(u.Day, u.Used)
	return nil
}

// SaveUsage writes today's usage to path, replacing it atomically.
func (l *Limiter) SaveUsage(path string) error {
	s := l.Status()
	data, err := json.Marshal(usageFile{Day: s.Day, Used: s.Used})
	if err != nil {
		return fmt.Errorf("ratelimit: encode usage: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ratelimit: create usage directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("ratelimit: create temp usage: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("ratelimit: write usage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ratelimit: close temp usage: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("ratelimit: replace usage: %w", err)
	}
	return nil
}
