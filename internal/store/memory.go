package store

import (
	"sync"

	"github.com/tallyhq/tally/internal/schema"
)

// MemStore is an in-memory Store for tests and dry runs. It goes through
// the same CSV encode/decode as DiskStore so that quoting behavior and
// short-row handling match the on-disk representation exactly.
type MemStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{files: make(map[string][]byte)}
}

// Read implements Store.Read.
func (s *MemStore) Read(table schema.Table) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.rawLocked(table)
	if err != nil {
		return nil, err
	}
	return decodeCSV(table, data)
}

// Write implements Store.Write.
func (s *MemStore) Write(table schema.Table, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := encodeCSV(table, rows)
	if err != nil {
		return err
	}
	s.files[table.Name] = data
	return nil
}

// Append implements Store.Append.
func (s *MemStore) Append(table schema.Table, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.rawLocked(table)
	if err != nil {
		return err
	}
	rows, err := decodeCSV(table, data)
	if err != nil {
		return err
	}
	out, err := encodeCSV(table, append(rows, row))
	if err != nil {
		return err
	}
	s.files[table.Name] = out
	return nil
}

// ReadRaw implements Store.ReadRaw.
func (s *MemStore) ReadRaw(table schema.Table) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rawLocked(table)
}

// WriteRaw implements Store.WriteRaw.
func (s *MemStore) WriteRaw(table schema.Table, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[table.Name] = append([]byte(nil), data...)
	return nil
}

// rawLocked returns the stored bytes, initializing a header-only table
// on first use. Caller holds the mutex.
func (s *MemStore) rawLocked(table schema.Table) ([]byte, error) {
	if data, ok := s.files[table.Name]; ok {
		return data, nil
	}
	data, err := encodeCSV(table, nil)
	if err != nil {
		return nil, err
	}
	s.files[table.Name] = data
	return data, nil
}
