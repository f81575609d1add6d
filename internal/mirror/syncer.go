package mirror

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"sync"

	"github.com/tallyhq/tally/internal/schema"
	"github.com/tallyhq/tally/internal/store"
)

// syncer implements Syncer over a contents API client and a local store.
type syncer struct {
	client *Client
	store  store.Store
	prefix string
	logger *log.Logger

	// revisions caches the marker last seen per table, so a push after
	// a fetch in the same session skips the extra revision lookup.
	mu        sync.Mutex
	revisions map[string]string
}

// SyncerConfig holds syncer options.
type SyncerConfig struct {
	// PathPrefix is the directory inside the remote repository that
	// holds the table files. Defaults to "data".
	PathPrefix string

	// Logger for sync activity. Defaults to a stderr logger.
	Logger *log.Logger
}

// NewSyncer creates a Syncer mirroring the given store through the
// given client.
func NewSyncer(client *Client, st store.Store, cfg SyncerConfig) Syncer {
	prefix := cfg.PathPrefix
	if prefix == "" {
		prefix = "data"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[mirror] ", log.LstdFlags)
	}
	return &syncer{
		client:    client,
		store:     st,
		prefix:    prefix,
		logger:    logger,
		revisions: make(map[string]string),
	}
}

// remotePath returns the table file's path inside the repository.
func (s *syncer) remotePath(table schema.Table) string {
	return path.Join(s.prefix, table.Filename())
}

// Fetch implements Syncer.Fetch.
func (s *syncer) Fetch(ctx context.Context, table schema.Table) error {
	obj, err := s.client.Get(ctx, s.remotePath(table))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// No remote copy yet. Leave the local file for the
			// store's first-use initialization.
			return nil
		}
		s.logger.Printf("WARNING: fetch of %s failed, using local copy: %v", table.Name, err)
		return nil
	}

	if err := s.store.WriteRaw(table, obj.Content); err != nil {
		return fmt.Errorf("failed to install fetched %s: %w", table.Name, err)
	}

	s.mu.Lock()
	s.revisions[table.Name] = obj.Revision
	s.mu.Unlock()

	s.logger.Printf("Fetched %s (revision %s)", table.Name, short(obj.Revision))
	return nil
}

// Push implements Syncer.Push.
func (s *syncer) Push(ctx context.Context, table schema.Table, message string) error {
	content, err := s.store.ReadRaw(table)
	if err != nil {
		return fmt.Errorf("failed to read local %s: %w", table.Name, err)
	}

	revision, err := s.currentRevision(ctx, table)
	if err != nil {
		return fmt.Errorf("failed to resolve revision of %s: %w", table.Name, err)
	}

	obj, err := s.client.Put(ctx, s.remotePath(table), message, content, revision)
	if err != nil {
		// A conflict means another session pushed since our marker was
		// read. Drop the cached marker so the next attempt re-reads.
		if errors.Is(err, ErrConflict) {
			s.mu.Lock()
			delete(s.revisions, table.Name)
			s.mu.Unlock()
		}
		return fmt.Errorf("failed to push %s: %w", table.Name, err)
	}

	s.mu.Lock()
	s.revisions[table.Name] = obj.Revision
	s.mu.Unlock()

	s.logger.Printf("Pushed %s (revision %s): %s", table.Name, short(obj.Revision), message)
	return nil
}

// currentRevision returns the marker to include with a push: the cached
// one from this session if present, otherwise the remote's current
// marker. An object that doesn't exist remotely yet pushes with no
// marker (create).
func (s *syncer) currentRevision(ctx context.Context, table schema.Table) (string, error) {
	s.mu.Lock()
	cached, ok := s.revisions[table.Name]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	obj, err := s.client.Get(ctx, s.remotePath(table))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return obj.Revision, nil
}

// FetchAll implements Syncer.FetchAll.
func (s *syncer) FetchAll(ctx context.Context) error {
	for _, table := range schema.All {
		if err := s.Fetch(ctx, table); err != nil {
			return err
		}
	}
	return nil
}

// PushAll implements Syncer.PushAll.
func (s *syncer) PushAll(ctx context.Context, message string) error {
	for _, table := range schema.All {
		if err := s.Push(ctx, table, message); err != nil {
			return err
		}
	}
	return nil
}

func short(revision string) string {
	if len(revision) > 8 {
		return revision[:8]
	}
	return revision
}

// nop is the Syncer used when no remote is configured: every operation
// succeeds without doing anything.
type nop struct{}

// NewNop returns a Syncer that does nothing. Used for local-only mode
// and as the default in tests.
func NewNop() Syncer { return nop{} }

func (nop) Fetch(context.Context, schema.Table) error        { return nil }
func (nop) Push(context.Context, schema.Table, string) error { return nil }
func (nop) FetchAll(context.Context) error                   { return nil }
func (nop) PushAll(context.Context, string) error            { return nil }
