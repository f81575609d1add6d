package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/tallyhq/tally/internal/schema"
	"github.com/tallyhq/tally/internal/store"
)

// seedAcme populates a ledger with two clients and data for both, so
// archive tests can verify the other client's rows are untouched.
func seedAcme(t *testing.T, l *Ledger) {
	t.Helper()
	ctx := context.Background()
	for _, c := range []string{"Acme", "Globex"} {
		if err := l.AddClient(ctx, c, ""); err != nil {
			t.Fatalf("AddClient(%s) failed: %v", c, err)
		}
		if err := l.AddCategory(ctx, c, "Billing"); err != nil {
			t.Fatalf("AddCategory(%s) failed: %v", c, err)
		}
		if err := l.AddTodo(ctx, schema.Todo{Client: c, Category: "Billing", Task: "Invoice " + c, Priority: 3}); err != nil {
			t.Fatalf("AddTodo(%s) failed: %v", c, err)
		}
		if err := l.LogHours(ctx, schema.Entry{Date: "2024-01-10", Client: c, Hours: 2, Description: "work"}); err != nil {
			t.Fatalf("LogHours(%s) failed: %v", c, err)
		}
	}
}

func TestArchiveClient_MovesAllLinkedTables(t *testing.T) {
	l, st, cs := testLedger(t)
	seedAcme(t, l)
	cs.pushes = nil

	if err := l.ArchiveClient(context.Background(), "Acme"); err != nil {
		t.Fatalf("ArchiveClient() failed: %v", err)
	}

	// Active tables keep only Globex.
	for _, table := range schema.Linked {
		rows, _ := st.Read(table)
		col := schema.ClientColumn(table)
		for _, row := range rows {
			if row[col] == "Acme" {
				t.Errorf("active %s still holds an Acme row: %v", table.Name, row)
			}
		}
		if len(rows) != 1 {
			t.Errorf("active %s has %d rows, want 1 (Globex)", table.Name, len(rows))
		}
	}

	// Archive tables hold exactly the Acme rows.
	for _, table := range schema.Linked {
		arch, _ := schema.ArchiveOf(table)
		rows, _ := st.Read(arch)
		if len(rows) != 1 {
			t.Errorf("archive %s has %d rows, want 1", arch.Name, len(rows))
			continue
		}
		if rows[0][schema.ClientColumn(arch)] != "Acme" {
			t.Errorf("archive %s row = %v, want an Acme row", arch.Name, rows[0])
		}
	}

	// 8 pushes: 4 source tables + 4 destination tables.
	if len(cs.pushes) != 8 {
		t.Errorf("pushes = %d (%v), want 8", len(cs.pushes), cs.pushes)
	}
}

func TestArchiveClient_UnknownClient(t *testing.T) {
	l, _, cs := testLedger(t)
	seedAcme(t, l)
	cs.pushes = nil

	err := l.ArchiveClient(context.Background(), "Initech")
	if !errors.Is(err, ErrUnknownClient) {
		t.Fatalf("err = %v, want ErrUnknownClient", err)
	}
	if len(cs.pushes) != 0 {
		t.Error("failed archive must not push")
	}
}

// tableState flattens every linked table pair into a sorted multiset
// for round-trip comparison.
func tableState(t *testing.T, st store.Store) map[string][]string {
	t.Helper()
	state := make(map[string][]string)
	for _, table := range schema.All {
		rows, err := st.Read(table)
		if err != nil {
			t.Fatalf("Read(%s) failed: %v", table.Name, err)
		}
		flat := make([]string, 0, len(rows))
		for _, row := range rows {
			flat = append(flat, fmt.Sprintf("%q", row))
		}
		sort.Strings(flat)
		state[table.Name] = flat
	}
	return state
}

func TestArchiveRestore_RoundTrip(t *testing.T) {
	l, st, _ := testLedger(t)
	seedAcme(t, l)
	ctx := context.Background()

	before := tableState(t, st)

	if err := l.ArchiveClient(ctx, "Acme"); err != nil {
		t.Fatalf("ArchiveClient() failed: %v", err)
	}
	if err := l.RestoreClient(ctx, "Acme"); err != nil {
		t.Fatalf("RestoreClient() failed: %v", err)
	}

	after := tableState(t, st)
	if !reflect.DeepEqual(before, after) {
		t.Errorf("round trip changed table state:\nbefore: %v\nafter:  %v", before, after)
	}
}

func TestRestoreClient_RequiresArchivedClient(t *testing.T) {
	l, _, _ := testLedger(t)
	seedAcme(t, l)

	// Acme is active, not archived.
	err := l.RestoreClient(context.Background(), "Acme")
	if !errors.Is(err, ErrUnknownClient) {
		t.Errorf("err = %v, want ErrUnknownClient", err)
	}
}

// failingStore wraps a Store and fails writes to one table, to drive
// the saga's compensation path.
type failingStore struct {
	store.Store
	failTable string
}

func (f *failingStore) Write(table schema.Table, rows [][]string) error {
	if table.Name == f.failTable {
		return fmt.Errorf("disk full")
	}
	return f.Store.Write(table, rows)
}

func TestArchiveClient_StepFailureCompensates(t *testing.T) {
	mem := store.NewMemStore()
	fs := &failingStore{Store: mem}
	fixed := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	l := New(fs, &countingSyncer{},
		WithLogger(log.New(io.Discard, "", 0)),
		WithClock(func() time.Time { return fixed }),
	)
	seedAcme(t, l)

	before := tableState(t, mem)

	// Clients and categories move first; the todos step fails.
	fs.failTable = schema.Todos.Name
	err := l.ArchiveClient(context.Background(), "Acme")
	if err == nil {
		t.Fatal("ArchiveClient() should fail when a step's write fails")
	}

	after := tableState(t, mem)
	if !reflect.DeepEqual(before, after) {
		t.Errorf("compensation did not restore prior state:\nbefore: %v\nafter:  %v", before, after)
	}
}

func TestArchiveClient_PushFailureKeepsLocalMove(t *testing.T) {
	l, st, cs := testLedger(t)
	seedAcme(t, l)
	cs.failWith = fmt.Errorf("remote down")

	err := l.ArchiveClient(context.Background(), "Acme")
	if err == nil {
		t.Fatal("push failures must surface")
	}

	// The local moves are complete and consistent despite the failed
	// pushes.
	activeClients, _ := st.Read(schema.Clients)
	for _, row := range activeClients {
		if row[0] == "Acme" {
			t.Error("Acme still active after archive with failed pushes")
		}
	}
	archived, _ := st.Read(schema.ArchiveClients)
	found := false
	for _, row := range archived {
		if row[0] == "Acme" {
			found = true
		}
	}
	if !found {
		t.Error("Acme missing from archive after archive with failed pushes")
	}
}
