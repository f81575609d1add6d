package store

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tallyhq/tally/internal/schema"
)

// DiskStore keeps one CSV file per table under a data directory.
//
// Files are written whole on every change: read, mutate in memory, replace.
// A mutex serializes access within one process; cross-process coordination
// is the remote mirror's problem, not the local store's.
type DiskStore struct {
	dir string
	mu  sync.Mutex
}

// NewDiskStore creates a DiskStore rooted at dir, creating the directory
// if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the data directory the store is rooted at.
func (s *DiskStore) Dir() string { return s.dir }

// Path returns the absolute path of a table's CSV file.
func (s *DiskStore) Path(table schema.Table) string {
	return filepath.Join(s.dir, table.Filename())
}

// Read implements Store.Read.
func (s *DiskStore) Read(table schema.Table) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.initIfMissing(table); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(table))
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", table.Name, err)
	}
	return decodeCSV(table, data)
}

// Write implements Store.Write.
func (s *DiskStore) Write(table schema.Table, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(table, rows)
}

// Append implements Store.Append.
func (s *DiskStore) Append(table schema.Table, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.initIfMissing(table); err != nil {
		return err
	}
	data, err := os.ReadFile(s.Path(table))
	if err != nil {
		return fmt.Errorf("failed to read table %s: %w", table.Name, err)
	}
	rows, err := decodeCSV(table, data)
	if err != nil {
		return err
	}
	return s.writeLocked(table, append(rows, row))
}

// ReadRaw implements Store.ReadRaw.
func (s *DiskStore) ReadRaw(table schema.Table) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.initIfMissing(table); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(table))
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", table.Name, err)
	}
	return data, nil
}

// WriteRaw implements Store.WriteRaw.
func (s *DiskStore) WriteRaw(table schema.Table, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceLocked(table, data)
}

// writeLocked replaces the file content. Caller holds the mutex.
func (s *DiskStore) writeLocked(table schema.Table, rows [][]string) error {
	data, err := encodeCSV(table, rows)
	if err != nil {
		return err
	}
	return s.replaceLocked(table, data)
}

// replaceLocked swaps the file content through a temp file and rename
// so a crash never leaves a half-written table behind. Caller holds
// the mutex.
func (s *DiskStore) replaceLocked(table schema.Table, data []byte) error {
	path := s.Path(table)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write table %s: %w", table.Name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace table %s: %w", table.Name, err)
	}
	return nil
}

// initIfMissing writes the header-only file on first use. Caller holds
// the mutex.
func (s *DiskStore) initIfMissing(table schema.Table) error {
	path := s.Path(table)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat table %s: %w", table.Name, err)
	}
	return s.writeLocked(table, nil)
}

// decodeCSV parses a table file into data rows, dropping the header.
// FieldsPerRecord is disabled: older files may carry short rows and the
// store intentionally does not validate shape.
func decodeCSV(table schema.Table, data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse table %s: %w", table.Name, err)
	}
	if len(records) == 0 {
		return [][]string{}, nil
	}
	return records[1:], nil
}

// encodeCSV renders header + rows as CSV bytes.
func encodeCSV(table schema.Table, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(table.Columns); err != nil {
		return nil, fmt.Errorf("failed to encode table %s: %w", table.Name, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to encode table %s: %w", table.Name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to encode table %s: %w", table.Name, err)
	}
	return buf.Bytes(), nil
}
