// Package report computes the summaries behind the dashboard's charts:
// monthly hours against goals, per-client totals, and open-todo counts.
package report

import (
	"context"
	"fmt"
	"sort"

	"github.com/tallyhq/tally/internal/cache"
)

// MonthSummary is one month's logged hours against its goal.
type MonthSummary struct {
	Month  string
	Logged float64
	Goal   float64
}

// Met reports whether the month's goal was reached. A month with no
// goal rows counts as met.
func (m MonthSummary) Met() bool {
	return m.Logged >= m.Goal
}

// ClientSummary is one client's all-time totals.
type ClientSummary struct {
	Client    string
	Hours     float64
	OpenTodos int
}

// Reporter runs report queries against a refreshed cache.
type Reporter struct {
	db *cache.DB
}

// New creates a Reporter. The cache must have been refreshed from the
// table store before the queries are meaningful.
func New(db *cache.DB) *Reporter {
	return &Reporter{db: db}
}

// Months returns a summary for every month of the year that has either
// logged hours or a goal, in month order. Duplicate goal rows for one
// month appear summed, matching the entry surface's accumulate
// behavior.
func (r *Reporter) Months(ctx context.Context, year string) ([]MonthSummary, error) {
	logged, err := r.db.MonthlyHours(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("monthly report: %w", err)
	}
	goals, err := r.db.GoalHours(ctx)
	if err != nil {
		return nil, fmt.Errorf("monthly report: %w", err)
	}

	months := make(map[string]bool)
	for m := range logged {
		months[m] = true
	}
	for m := range goals {
		months[m] = true
	}

	var out []MonthSummary
	for m := range months {
		out = append(out, MonthSummary{Month: m, Logged: logged[m], Goal: goals[m]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

// Clients returns per-client totals sorted by descending hours.
func (r *Reporter) Clients(ctx context.Context) ([]ClientSummary, error) {
	hours, err := r.db.ClientHours(ctx)
	if err != nil {
		return nil, fmt.Errorf("client report: %w", err)
	}
	todos, err := r.db.OpenTodoCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("client report: %w", err)
	}

	clients := make(map[string]bool)
	for c := range hours {
		clients[c] = true
	}
	for c := range todos {
		clients[c] = true
	}

	var out []ClientSummary
	for c := range clients {
		out = append(out, ClientSummary{Client: c, Hours: hours[c], OpenTodos: todos[c]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hours != out[j].Hours {
			return out[i].Hours > out[j].Hours
		}
		return out[i].Client < out[j].Client
	})
	return out, nil
}
