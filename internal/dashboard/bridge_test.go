package dashboard

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/tallyhq/tally/internal/cache"
	"github.com/tallyhq/tally/internal/daemon"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/mirror"
	"github.com/tallyhq/tally/internal/schema"
	"github.com/tallyhq/tally/internal/store"
)

// readUntil drains messages until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want MessageType) Message {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if msg.Type == want {
			return msg
		}
	}
}

func TestBridge_ForwardsTableEvents(t *testing.T) {
	s := startServer(t)
	conn := dial(t, s)

	deadline := time.Now().Add(3 * time.Second)
	for s.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	db, err := cache.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	defer db.Close()
	if err := db.InitSchema(); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}

	led := ledger.New(store.NewMemStore(), mirror.NewNop())
	bridge := NewBridge(s, led, db, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan daemon.TableEvent, 1)
	go bridge.Run(ctx, events)

	events <- daemon.TableEvent{Table: schema.Hours, Pushed: true}

	msg := readUntil(t, conn, MessageTypeTableUpdate)
	var update TableUpdateData
	if err := json.Unmarshal(msg.Data, &update); err != nil {
		t.Fatalf("Unmarshal(Data) error = %v", err)
	}
	if update.Table != "hours" {
		t.Errorf("Table = %q, want %q", update.Table, "hours")
	}
	if !update.Pushed {
		t.Error("Pushed = false, want true")
	}
}

func TestBridge_PublishesStatsOnStartup(t *testing.T) {
	s := startServer(t)
	conn := dial(t, s)

	deadline := time.Now().Add(3 * time.Second)
	for s.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	db, err := cache.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	defer db.Close()
	if err := db.InitSchema(); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}

	st := store.NewMemStore()
	led := ledger.New(st, mirror.NewNop())
	if err := led.AddClient(context.Background(), "Acme", ""); err != nil {
		t.Fatalf("AddClient() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan daemon.TableEvent)
	go NewBridge(s, led, db, nil).Run(ctx, events)

	msg := readUntil(t, conn, MessageTypeStats)
	var stats StatsData
	if err := json.Unmarshal(msg.Data, &stats); err != nil {
		t.Fatalf("Unmarshal(Data) error = %v", err)
	}
	if stats.Clients != 1 {
		t.Errorf("Clients = %d, want 1", stats.Clients)
	}
}
