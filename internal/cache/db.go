// Package cache provides the embedded SQLite query cache for reports.
//
// The CSV tables are the source of truth; the cache is a derived,
// rebuildable view loaded from the table store so that report queries
// (monthly totals, goal progress, per-client summaries) run as SQL
// instead of repeated full-file scans. Dropping the cache file loses
// nothing: the next refresh rebuilds it.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB wraps the SQLite connection holding the report cache.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates or opens the cache database at path. The caller MUST
// call Close() when done.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping cache: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn, path: path}

	if _, err := db.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// OpenMemory opens an in-memory cache, used by tests and one-shot
// report runs that don't want a file on disk.
func OpenMemory() (*DB, error) {
	conn, err := sql.Open("sqlite3", "file::memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory cache: %w", err)
	}
	// A single connection keeps every query on the same in-memory
	// database.
	conn.SetMaxOpenConns(1)
	return &DB{conn: conn, path: ":memory:"}, nil
}

// Close closes the cache connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close cache: %w", err)
	}
	db.conn = nil
	return nil
}

// InitSchema creates the cache tables. Idempotent.
func (db *DB) InitSchema() error {
	return db.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the cache tables with context support.
func (db *DB) InitSchemaContext(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS hours (
		date TEXT NOT NULL,         -- YYYY-MM-DD
		client TEXT NOT NULL,
		hours REAL NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS goals (
		month TEXT NOT NULL,        -- two-digit, duplicates accumulate
		goal_hours REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS todos (
		client TEXT NOT NULL,
		category TEXT NOT NULL,
		task TEXT NOT NULL,
		priority INTEGER NOT NULL,
		date_created TEXT NOT NULL DEFAULT '',
		date_completed TEXT NOT NULL DEFAULT ''  -- empty means active
	);

	CREATE INDEX IF NOT EXISTS idx_hours_client ON hours(client);
	CREATE INDEX IF NOT EXISTS idx_hours_date ON hours(date);
	CREATE INDEX IF NOT EXISTS idx_todos_client ON todos(client);
	CREATE INDEX IF NOT EXISTS idx_todos_open
	    ON todos(client, priority) WHERE date_completed = '';
	`
	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return nil
}

// HoursRow is one cached hours entry.
type HoursRow struct {
	Date        string
	Client      string
	Hours       float64
	Description string
}

// GoalRow is one cached goal entry.
type GoalRow struct {
	Month     string
	GoalHours float64
}

// TodoRow is one cached todo entry.
type TodoRow struct {
	Client        string
	Category      string
	Task          string
	Priority      int
	DateCreated   string
	DateCompleted string
}

// ReplaceHours reloads the hours table wholesale inside a transaction.
// The cache mirrors whole files, so a whole-table replace matches the
// source's write granularity.
func (db *DB) ReplaceHours(ctx context.Context, rows []HoursRow) error {
	return db.replace(ctx, "hours",
		"INSERT INTO hours (date, client, hours, description) VALUES (?, ?, ?, ?)",
		len(rows), func(i int) []any {
			r := rows[i]
			return []any{r.Date, r.Client, r.Hours, r.Description}
		})
}

// ReplaceGoals reloads the goals table wholesale.
func (db *DB) ReplaceGoals(ctx context.Context, rows []GoalRow) error {
	return db.replace(ctx, "goals",
		"INSERT INTO goals (month, goal_hours) VALUES (?, ?)",
		len(rows), func(i int) []any {
			r := rows[i]
			return []any{r.Month, r.GoalHours}
		})
}

// ReplaceTodos reloads the todos table wholesale.
func (db *DB) ReplaceTodos(ctx context.Context, rows []TodoRow) error {
	return db.replace(ctx, "todos",
		"INSERT INTO todos (client, category, task, priority, date_created, date_completed) VALUES (?, ?, ?, ?, ?, ?)",
		len(rows), func(i int) []any {
			r := rows[i]
			return []any{r.Client, r.Category, r.Task, r.Priority, r.DateCreated, r.DateCompleted}
		})
}

// replace deletes a table's content and bulk-inserts the new rows in
// one transaction.
func (db *DB) replace(ctx context.Context, table, insert string, n int, args func(int) []any) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cache reload of %s: %w", table, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("failed to clear cache table %s: %w", table, err)
	}
	for i := 0; i < n; i++ {
		if _, err := tx.ExecContext(ctx, insert, args(i)...); err != nil {
			return fmt.Errorf("failed to load cache table %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache reload of %s: %w", table, err)
	}
	return nil
}

// MonthlyHours returns total logged hours per month ("01".."12") for
// the given year.
func (db *DB) MonthlyHours(ctx context.Context, year string) (map[string]float64, error) {
	query := `
	SELECT substr(date, 6, 2) AS month, SUM(hours)
	FROM hours
	WHERE substr(date, 1, 4) = ?
	GROUP BY month`
	rows, err := db.conn.QueryContext(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly hours: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var month string
		var total float64
		if err := rows.Scan(&month, &total); err != nil {
			return nil, fmt.Errorf("failed to scan monthly hours: %w", err)
		}
		totals[month] = total
	}
	return totals, rows.Err()
}

// GoalHours returns the goal total per month. Duplicate goal rows for
// the same month are summed, matching the entry surface's accumulate
// behavior.
func (db *DB) GoalHours(ctx context.Context) (map[string]float64, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT month, SUM(goal_hours) FROM goals GROUP BY month")
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var month string
		var total float64
		if err := rows.Scan(&month, &total); err != nil {
			return nil, fmt.Errorf("failed to scan goals: %w", err)
		}
		totals[month] = total
	}
	return totals, rows.Err()
}

// ClientHours returns total logged hours per client, all time.
func (db *DB) ClientHours(ctx context.Context) (map[string]float64, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT client, SUM(hours) FROM hours GROUP BY client")
	if err != nil {
		return nil, fmt.Errorf("failed to query client hours: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var client string
		var total float64
		if err := rows.Scan(&client, &total); err != nil {
			return nil, fmt.Errorf("failed to scan client hours: %w", err)
		}
		totals[client] = total
	}
	return totals, rows.Err()
}

// OpenTodoCounts returns the number of active todos per client.
func (db *DB) OpenTodoCounts(ctx context.Context) (map[string]int, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT client, COUNT(*) FROM todos WHERE date_completed = '' GROUP BY client")
	if err != nil {
		return nil, fmt.Errorf("failed to query open todos: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var client string
		var count int
		if err := rows.Scan(&client, &count); err != nil {
			return nil, fmt.Errorf("failed to scan open todos: %w", err)
		}
		counts[client] = count
	}
	return counts, rows.Err()
}
