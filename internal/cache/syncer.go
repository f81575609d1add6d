package cache

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/tallyhq/tally/internal/schema"
	"github.com/tallyhq/tally/internal/store"
)

// Syncer loads the report cache from the table store. The cache never
// writes back: data flows CSV -> cache only.
type Syncer struct {
	db     *DB
	store  store.Store
	logger *log.Logger
}

// NewSyncer creates a cache syncer. If logger is nil, a default stderr
// logger is used.
func NewSyncer(db *DB, st store.Store, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = log.New(os.Stderr, "[cache] ", log.LstdFlags)
	}
	return &Syncer{db: db, store: st, logger: logger}
}

// Refresh reloads every cached table from the store. A malformed row
// stops the refresh for its table and surfaces the error; the other
// tables still load.
func (s *Syncer) Refresh(ctx context.Context) error {
	var firstErr error
	for name, fn := range map[string]func(context.Context) error{
		"hours": s.refreshHours,
		"goals": s.refreshGoals,
		"todos": s.refreshTodos,
	} {
		if err := fn(ctx); err != nil {
			s.logger.Printf("WARNING: cache refresh of %s failed: %v", name, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *Syncer) refreshHours(ctx context.Context) error {
	raw, err := s.store.Read(schema.Hours)
	if err != nil {
		return err
	}
	rows := make([]HoursRow, 0, len(raw))
	for i, r := range raw {
		e, err := schema.DecodeEntry(r)
		if err != nil {
			return fmt.Errorf("hours row %d: %w", i, err)
		}
		rows = append(rows, HoursRow{Date: e.Date, Client: e.Client, Hours: e.Hours, Description: e.Description})
	}
	return s.db.ReplaceHours(ctx, rows)
}

func (s *Syncer) refreshGoals(ctx context.Context) error {
	raw, err := s.store.Read(schema.Goals)
	if err != nil {
		return err
	}
	rows := make([]GoalRow, 0, len(raw))
	for i, r := range raw {
		g, err := schema.DecodeGoal(r)
		if err != nil {
			return fmt.Errorf("goals row %d: %w", i, err)
		}
		rows = append(rows, GoalRow{Month: g.Month, GoalHours: g.GoalHours})
	}
	return s.db.ReplaceGoals(ctx, rows)
}

func (s *Syncer) refreshTodos(ctx context.Context) error {
	raw, err := s.store.Read(schema.Todos)
	if err != nil {
		return err
	}
	rows := make([]TodoRow, 0, len(raw))
	for i, r := range raw {
		t, err := schema.DecodeTodo(r)
		if err != nil {
			return fmt.Errorf("todos row %d: %w", i, err)
		}
		rows = append(rows, TodoRow{
			Client:        t.Client,
			Category:      t.Category,
			Task:          t.Task,
			Priority:      t.Priority,
			DateCreated:   t.DateCreated,
			DateCompleted: t.DateCompleted,
		})
	}
	return s.db.ReplaceTodos(ctx, rows)
}
