// Package daemon watches the data directory and keeps the report cache
// and the remote mirror current as table files change.
//
// The daemon:
// 1. Watches the data directory for table file changes
// 2. Debounces rapid edits to the same table
// 3. Refreshes the report cache for changed tables
// 4. Pushes changed tables to the remote mirror
// 5. Notifies listeners (the dashboard) of each synced change
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tallyhq/tally/internal/cache"
	"github.com/tallyhq/tally/internal/mirror"
	"github.com/tallyhq/tally/internal/schema"
)

// TableEvent describes one synced table change, delivered to the
// Notify channel after the cache refresh and push complete.
type TableEvent struct {
	// Table is the table whose file changed.
	Table schema.Table

	// Pushed reports whether the syncer accepted the change without
	// error. False when the push failed; without a configured remote
	// the syncer is a no-op that accepts everything.
	Pushed bool
}

// Config holds daemon options.
type Config struct {
	// DebounceInterval is how long to wait after the last write to a
	// table file before processing it. Editors and the store's
	// temp-file rename emit several events per logical change.
	DebounceInterval time.Duration

	// Logger for daemon activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval: 250 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon orchestrates watching, cache refresh, and mirror pushes.
type Daemon struct {
	dataDir string
	cache   *cache.Syncer
	sync    mirror.Syncer
	config  *Config

	watcher       *fsnotify.Watcher
	changeQueue   map[string]time.Time // table name -> last event time
	changeQueueMu sync.Mutex

	notify chan TableEvent

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Daemon watching dataDir. The cache syncer refreshes
// report data; the mirror syncer pushes changed tables (pass
// mirror.NewNop() for local-only operation).
func New(dataDir string, cs *cache.Syncer, ms mirror.Syncer, config *Config) (*Daemon, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("dataDir cannot be empty")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[daemon] ", log.LstdFlags)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		dataDir:     dataDir,
		cache:       cs,
		sync:        ms,
		config:      config,
		watcher:     watcher,
		changeQueue: make(map[string]time.Time),
		notify:      make(chan TableEvent, 100),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Notify returns the channel of synced table changes. The channel is
// never closed while the daemon runs; slow consumers drop events.
func (d *Daemon) Notify() <-chan TableEvent {
	return d.notify
}

// Start begins the daemon's operation: an initial full cache refresh,
// then the watch loop. Blocks until ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting daemon")

	if err := d.cache.Refresh(ctx); err != nil {
		// A malformed table should not keep the daemon down; the
		// error repeats on the next refresh if it persists.
		d.config.Logger.Printf("WARNING: initial cache refresh: %v", err)
	}

	if err := d.watcher.Add(d.dataDir); err != nil {
		return fmt.Errorf("failed to watch data directory: %w", err)
	}
	d.config.Logger.Printf("Watching %s", d.dataDir)

	d.wg.Add(2)
	go d.watchFileEvents()
	go d.processChangeQueue()

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping daemon")
	d.cancel()
	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}
	d.wg.Wait()
	d.config.Logger.Println("Daemon stopped")
	return nil
}

// watchFileEvents queues table changes from fsnotify events.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			name, ok := tableForPath(event.Name)
			if !ok {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			d.changeQueueMu.Lock()
			d.changeQueue[name] = time.Now()
			d.changeQueueMu.Unlock()

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// processChangeQueue drains debounced changes.
func (d *Daemon) processChangeQueue() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.processReady()
		}
	}
}

// processReady handles every queued table whose debounce window has
// passed.
func (d *Daemon) processReady() {
	cutoff := time.Now().Add(-d.config.DebounceInterval)

	d.changeQueueMu.Lock()
	var ready []string
	for name, last := range d.changeQueue {
		if last.Before(cutoff) {
			ready = append(ready, name)
			delete(d.changeQueue, name)
		}
	}
	d.changeQueueMu.Unlock()

	for _, name := range ready {
		d.handleChange(name)
	}
}

// handleChange refreshes the cache and pushes one changed table.
func (d *Daemon) handleChange(name string) {
	table, err := schema.Lookup(name)
	if err != nil {
		d.config.Logger.Printf("Ignoring unknown table file: %s", name)
		return
	}

	d.config.Logger.Printf("Table %s changed", table.Name)

	if err := d.cache.Refresh(d.ctx); err != nil {
		d.config.Logger.Printf("WARNING: cache refresh after %s change: %v", table.Name, err)
	}

	pushed := false
	msg := fmt.Sprintf("sync %s", table.Name)
	if err := d.sync.Push(d.ctx, table, msg); err != nil {
		d.config.Logger.Printf("WARNING: push of %s failed: %v", table.Name, err)
	} else {
		pushed = true
	}

	select {
	case d.notify <- TableEvent{Table: table, Pushed: pushed}:
	default:
		d.config.Logger.Println("Warning: notify channel full, dropping event")
	}
}

// tableForPath maps a changed file path to a table name. Only *.csv
// files in the data directory qualify; the store's temp files do not.
func tableForPath(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".csv") {
		return "", false
	}
	return strings.TrimSuffix(base, ".csv"), true
}
