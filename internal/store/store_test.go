package store

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/tallyhq/tally/internal/schema"
)

// stores returns both implementations so every test runs against each.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	disk, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore() failed: %v", err)
	}
	return map[string]Store{"disk": disk, "mem": NewMemStore()}
}

func TestRead_InitializesMissingTable(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			rows, err := s.Read(schema.Clients)
			if err != nil {
				t.Fatalf("Read() failed: %v", err)
			}
			if len(rows) != 0 {
				t.Errorf("fresh table has %d rows, want 0", len(rows))
			}
			raw, err := s.ReadRaw(schema.Clients)
			if err != nil {
				t.Fatalf("ReadRaw() failed: %v", err)
			}
			if !strings.HasPrefix(string(raw), "Client,Color") {
				t.Errorf("fresh table missing header, got %q", string(raw))
			}
		})
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	rows := [][]string{
		{"2024-01-10", "Acme", "3.5", "setup"},
		{"2024-01-11", "Acme", "2", "has, a comma and \"quotes\""},
	}
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Write(schema.Hours, rows); err != nil {
				t.Fatalf("Write() failed: %v", err)
			}
			got, err := s.Read(schema.Hours)
			if err != nil {
				t.Fatalf("Read() failed: %v", err)
			}
			if !reflect.DeepEqual(got, rows) {
				t.Errorf("Read() = %v, want %v", got, rows)
			}
		})
	}
}

func TestWrite_ReplacesWholeTable(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Append(schema.Clients, []string{"Acme", "#ff0000"}); err != nil {
				t.Fatalf("Append() failed: %v", err)
			}
			if err := s.Write(schema.Clients, [][]string{{"Globex", "#00ff00"}}); err != nil {
				t.Fatalf("Write() failed: %v", err)
			}
			got, err := s.Read(schema.Clients)
			if err != nil {
				t.Fatalf("Read() failed: %v", err)
			}
			want := [][]string{{"Globex", "#00ff00"}}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Read() = %v, want %v", got, want)
			}
		})
	}
}

func TestAppend_PreservesExistingRows(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, c := range []string{"Acme", "Globex", "Initech"} {
				if err := s.Append(schema.Clients, []string{c, ""}); err != nil {
					t.Fatalf("Append(%s) failed: %v", c, err)
				}
			}
			got, err := s.Read(schema.Clients)
			if err != nil {
				t.Fatalf("Read() failed: %v", err)
			}
			if len(got) != 3 {
				t.Fatalf("got %d rows, want 3", len(got))
			}
			if got[2][0] != "Initech" {
				t.Errorf("last row = %v, want Initech first", got[2])
			}
		})
	}
}

func TestStore_NoShapeValidation(t *testing.T) {
	// The store accepts rows that differ from the declared columns.
	// Shape errors belong to the typed decode layer.
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			short := [][]string{{"2024-01-10"}}
			if err := s.Write(schema.Hours, short); err != nil {
				t.Fatalf("Write() of short row failed: %v", err)
			}
			got, err := s.Read(schema.Hours)
			if err != nil {
				t.Fatalf("Read() failed: %v", err)
			}
			if !reflect.DeepEqual(got, short) {
				t.Errorf("Read() = %v, want %v", got, short)
			}
		})
	}
}

func TestWriteRaw_InstallsFetchedContent(t *testing.T) {
	content := []byte("Client,Color\nAcme,#ff0000\n")
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.WriteRaw(schema.Clients, content); err != nil {
				t.Fatalf("WriteRaw() failed: %v", err)
			}
			rows, err := s.Read(schema.Clients)
			if err != nil {
				t.Fatalf("Read() failed: %v", err)
			}
			want := [][]string{{"Acme", "#ff0000"}}
			if !reflect.DeepEqual(rows, want) {
				t.Errorf("Read() = %v, want %v", rows, want)
			}
		})
	}
}

func TestDiskStore_FileLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir)
	if err != nil {
		t.Fatalf("NewDiskStore() failed: %v", err)
	}
	if err := s.Append(schema.Goals, []string{"03", "40"}); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "goals.csv"))
	if err != nil {
		t.Fatalf("goals.csv not written: %v", err)
	}
	want := "Month,GoalHours\n03,40\n"
	if string(data) != want {
		t.Errorf("goals.csv = %q, want %q", string(data), want)
	}
}

func TestDiskStore_WriteRawReplacesThroughRename(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir)
	if err != nil {
		t.Fatalf("NewDiskStore() failed: %v", err)
	}
	if err := s.Append(schema.Hours, []string{"2024-01-10", "Acme", "3.5", "setup"}); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	fetched := []byte("Date,Client,Hours,Description\n2024-01-11,Globex,2,review\n")
	if err := s.WriteRaw(schema.Hours, fetched); err != nil {
		t.Fatalf("WriteRaw() failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "hours.csv"))
	if err != nil {
		t.Fatalf("hours.csv not written: %v", err)
	}
	if string(data) != string(fetched) {
		t.Errorf("hours.csv = %q, want %q", string(data), string(fetched))
	}
	// The swap happens via rename; no temp file may survive a
	// completed write.
	if _, err := os.Stat(filepath.Join(dir, "hours.csv.tmp")); !os.IsNotExist(err) {
		t.Errorf("hours.csv.tmp left behind (stat err = %v)", err)
	}
}
