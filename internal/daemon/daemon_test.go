package daemon

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tallyhq/tally/internal/cache"
	"github.com/tallyhq/tally/internal/mirror"
	"github.com/tallyhq/tally/internal/schema"
	"github.com/tallyhq/tally/internal/store"
)

func quiet() *log.Logger { return log.New(io.Discard, "", 0) }

// recordingSyncer captures daemon pushes.
type recordingSyncer struct {
	mirror.Syncer
	mu       sync.Mutex
	pushed   []string
	failWith error
}

func newRecordingSyncer() *recordingSyncer {
	return &recordingSyncer{Syncer: mirror.NewNop()}
}

func (r *recordingSyncer) Push(_ context.Context, table schema.Table, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushed = append(r.pushed, table.Name)
	return r.failWith
}

func (r *recordingSyncer) pushes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.pushed...)
}

func testDaemon(t *testing.T) (*Daemon, *store.DiskStore, *cache.DB, *recordingSyncer) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.NewDiskStore(dir)
	if err != nil {
		t.Fatalf("NewDiskStore() failed: %v", err)
	}
	db, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("cache.Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.InitSchema(); err != nil {
		t.Fatalf("InitSchema() failed: %v", err)
	}

	rs := newRecordingSyncer()
	cs := cache.NewSyncer(db, st, quiet())
	d, err := New(dir, cs, rs, &Config{
		DebounceInterval: 20 * time.Millisecond,
		Logger:           quiet(),
	})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return d, st, db, rs
}

func TestNew_RequiresDataDir(t *testing.T) {
	if _, err := New("", nil, mirror.NewNop(), nil); err == nil {
		t.Error("New() with empty dataDir should fail")
	}
}

func TestDaemon_SyncsChangedTable(t *testing.T) {
	d, st, db, rs := testDaemon(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Start(ctx) }()
	time.Sleep(50 * time.Millisecond) // let the watcher attach

	if err := st.Append(schema.Hours, schema.Entry{
		Date: "2024-01-10", Client: "Acme", Hours: 3.5, Description: "setup",
	}.Encode()); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	select {
	case ev := <-d.Notify():
		if ev.Table.Name != "hours" {
			t.Errorf("event table = %s, want hours", ev.Table.Name)
		}
		if !ev.Pushed {
			t.Error("event should report a successful push")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no table event within 3s")
	}

	totals, err := db.MonthlyHours(ctx, "2024")
	if err != nil {
		t.Fatalf("MonthlyHours() failed: %v", err)
	}
	if totals["01"] != 3.5 {
		t.Errorf("cache not refreshed: January = %v, want 3.5", totals["01"])
	}

	found := false
	for _, name := range rs.pushes() {
		if name == "hours" {
			found = true
		}
	}
	if !found {
		t.Errorf("pushes = %v, want hours included", rs.pushes())
	}
}

func TestDaemon_FailedPushReportedInEvent(t *testing.T) {
	d, st, _, rs := testDaemon(t)
	rs.failWith = mirror.ErrRemoteUnavailable

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Start(ctx) }()
	time.Sleep(50 * time.Millisecond)

	if err := st.Append(schema.Hours, schema.Entry{
		Date: "2024-01-10", Client: "Acme", Hours: 1, Description: "call",
	}.Encode()); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	select {
	case ev := <-d.Notify():
		if ev.Pushed {
			t.Error("event reports a push the syncer rejected")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no table event within 3s")
	}
}

func TestDaemon_IgnoresNonTableFiles(t *testing.T) {
	d, _, _, rs := testDaemon(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Start(ctx) }()
	time.Sleep(50 * time.Millisecond)

	// A foreign file in the data dir must not produce an event.
	if err := writeStray(d.dataDir); err != nil {
		t.Fatalf("writeStray() failed: %v", err)
	}

	select {
	case ev := <-d.Notify():
		t.Errorf("unexpected event for stray file: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
	if len(rs.pushes()) != 0 {
		t.Errorf("pushes = %v, want none", rs.pushes())
	}
}

func writeStray(dir string) error {
	return os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a table"), 0644)
}

func TestTableForPath(t *testing.T) {
	tests := []struct {
		path string
		name string
		ok   bool
	}{
		{"/data/hours.csv", "hours", true},
		{"/data/archive_todos.csv", "archive_todos", true},
		{"/data/hours.csv.tmp", "", false},
		{"/data/notes.txt", "", false},
	}
	for _, tt := range tests {
		name, ok := tableForPath(tt.path)
		if name != tt.name || ok != tt.ok {
			t.Errorf("tableForPath(%q) = (%q, %v), want (%q, %v)", tt.path, name, ok, tt.name, tt.ok)
		}
	}
}
