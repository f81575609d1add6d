package dashboard

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/tallyhq/tally/internal/cache"
	"github.com/tallyhq/tally/internal/daemon"
	"github.com/tallyhq/tally/internal/ledger"
)

// Bridge forwards daemon table events to the dashboard and publishes
// periodic aggregate stats.
type Bridge struct {
	server *Server
	led    *ledger.Ledger
	db     *cache.DB
	logger *log.Logger

	statsInterval time.Duration
}

// BridgeConfig holds bridge configuration.
type BridgeConfig struct {
	// StatsInterval controls how often aggregate stats are broadcast
	// (default: 30s).
	StatsInterval time.Duration

	// Logger for bridge activity (default: log.Default()).
	Logger *log.Logger
}

// NewBridge creates a bridge from the daemon's event stream to a
// dashboard server.
func NewBridge(server *Server, led *ledger.Ledger, db *cache.DB, config *BridgeConfig) *Bridge {
	if config == nil {
		config = &BridgeConfig{}
	}
	if config.StatsInterval <= 0 {
		config.StatsInterval = 30 * time.Second
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	return &Bridge{
		server:        server,
		led:           led,
		db:            db,
		logger:        config.Logger,
		statsInterval: config.StatsInterval,
	}
}

// Run forwards events until ctx is cancelled or events closes.
func (b *Bridge) Run(ctx context.Context, events <-chan daemon.TableEvent) {
	ticker := time.NewTicker(b.statsInterval)
	defer ticker.Stop()

	// The daemon refreshes the cache before watching, so the first
	// stats snapshot is already current.
	b.server.Broadcast(Message{Type: MessageTypeSyncComplete, Timestamp: time.Now()})
	b.publishStats(ctx)

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			b.server.BroadcastTableUpdate(ev.Table.Name, ev.Pushed)

		case <-ticker.C:
			b.publishStats(ctx)
		}
	}
}

func (b *Bridge) publishStats(ctx context.Context) {
	stats := StatsData{OpenTodos: map[string]int{}}

	clients, err := b.led.ListClients()
	if err != nil {
		b.logger.Printf("Failed to list clients for stats: %v", err)
	} else {
		stats.Clients = len(clients)
	}

	if counts, err := b.db.OpenTodoCounts(ctx); err != nil {
		b.logger.Printf("Failed to count open todos: %v", err)
	} else {
		stats.OpenTodos = counts
	}

	data, err := json.Marshal(stats)
	if err != nil {
		b.logger.Printf("Failed to marshal stats: %v", err)
		return
	}
	b.server.Broadcast(Message{Type: MessageTypeStats, Timestamp: time.Now(), Data: data})
}
