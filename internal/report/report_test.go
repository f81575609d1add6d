package report

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tallyhq/tally/internal/cache"
)

func testReporter(t *testing.T) (*Reporter, *cache.DB) {
	t.Helper()
	db, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("cache.Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.InitSchema(); err != nil {
		t.Fatalf("InitSchema() failed: %v", err)
	}
	return New(db), db
}

func TestMonths_HoursAgainstGoals(t *testing.T) {
	r, db := testReporter(t)
	ctx := context.Background()

	_ = db.ReplaceHours(ctx, []cache.HoursRow{
		{Date: "2024-01-05", Client: "Acme", Hours: 30},
		{Date: "2024-01-20", Client: "Acme", Hours: 15},
		{Date: "2024-02-01", Client: "Acme", Hours: 10},
	})
	_ = db.ReplaceGoals(ctx, []cache.GoalRow{
		{Month: "01", GoalHours: 40},
		{Month: "03", GoalHours: 20},
	})

	months, err := r.Months(ctx, "2024")
	if err != nil {
		t.Fatalf("Months() failed: %v", err)
	}

	// 01 has hours+goal, 02 hours only, 03 goal only; sorted.
	if len(months) != 3 {
		t.Fatalf("months = %d, want 3", len(months))
	}
	jan := months[0]
	if jan.Month != "01" || jan.Logged != 45 || jan.Goal != 40 {
		t.Errorf("January = %+v", jan)
	}
	if !jan.Met() {
		t.Error("January goal should be met (45 >= 40)")
	}
	if months[2].Month != "03" || months[2].Met() {
		t.Errorf("March = %+v, goal should be unmet", months[2])
	}
}

func TestMonths_DuplicateGoalsSum(t *testing.T) {
	r, db := testReporter(t)
	ctx := context.Background()

	_ = db.ReplaceHours(ctx, []cache.HoursRow{{Date: "2024-03-10", Client: "Acme", Hours: 50}})
	_ = db.ReplaceGoals(ctx, []cache.GoalRow{
		{Month: "03", GoalHours: 40},
		{Month: "03", GoalHours: 40},
	})

	months, err := r.Months(ctx, "2024")
	if err != nil {
		t.Fatalf("Months() failed: %v", err)
	}
	if len(months) != 1 || months[0].Goal != 80 {
		t.Fatalf("March goal = %+v, want 80 (duplicates summed)", months)
	}
	if months[0].Met() {
		t.Error("50 logged against a summed goal of 80 is unmet")
	}
}

func TestClients_SortedByHours(t *testing.T) {
	r, db := testReporter(t)
	ctx := context.Background()

	_ = db.ReplaceHours(ctx, []cache.HoursRow{
		{Date: "2024-01-05", Client: "Acme", Hours: 5},
		{Date: "2024-01-05", Client: "Globex", Hours: 9},
	})
	_ = db.ReplaceTodos(ctx, []cache.TodoRow{
		{Client: "Initech", Category: "Ops", Task: "x", Priority: 1},
	})

	clients, err := r.Clients(ctx)
	if err != nil {
		t.Fatalf("Clients() failed: %v", err)
	}
	if len(clients) != 3 {
		t.Fatalf("clients = %d, want 3 (todo-only client included)", len(clients))
	}
	if clients[0].Client != "Globex" || clients[1].Client != "Acme" {
		t.Errorf("order = %v", clients)
	}
	if clients[2].Client != "Initech" || clients[2].OpenTodos != 1 {
		t.Errorf("Initech = %+v", clients[2])
	}
}
