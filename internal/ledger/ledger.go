// Package ledger implements the multi-table operations that define the
// product's behavior: clients, logged hours, goals, categories, todos,
// days off, meetings, and the archive/restore lifecycle.
//
// Every operation follows the same shape: read the affected table from
// the local store, mutate in memory, write the table back whole, then
// push that one table's file to the remote mirror. A logical operation
// that touches N tables issues N pushes. Validation failures abort
// before any write; push failures are returned after the local write
// already stands.
package ledger

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/tallyhq/tally/internal/mirror"
	"github.com/tallyhq/tally/internal/schema"
	"github.com/tallyhq/tally/internal/store"
)

// Ledger coordinates the table store and the remote mirror.
type Ledger struct {
	store  store.Store
	sync   mirror.Syncer
	logger *log.Logger

	// now is the clock, injectable for tests. Completion dates and
	// default creation dates come from here.
	now func() time.Time
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithLogger sets the activity logger.
func WithLogger(logger *log.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithClock sets the time source. Tests pin this to a fixed date.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates a Ledger over the given store and syncer. Pass
// mirror.NewNop() for local-only operation.
func New(st store.Store, sync mirror.Syncer, opts ...Option) *Ledger {
	l := &Ledger{
		store:  st,
		sync:   sync,
		logger: log.New(os.Stderr, "[ledger] ", log.LstdFlags),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// today returns the clock's date in table format.
func (l *Ledger) today() string {
	return l.now().Format(schema.DateLayout)
}

// AddClient appends a client row.
//
// A blank name or a name already present in the active client table
// (exact, case-sensitive match) aborts the operation with no write and
// no push.
func (l *Ledger) AddClient(ctx context.Context, name, color string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("add client: %w", ErrBlankName)
	}

	rows, err := l.store.Read(schema.Clients)
	if err != nil {
		return fmt.Errorf("add client: %w", err)
	}
	for _, row := range rows {
		if schema.DecodeClient(row).Name == name {
			return fmt.Errorf("add client %q: %w", name, ErrDuplicateClient)
		}
	}

	c := schema.Client{Name: name, Color: color}
	if err := l.store.Append(schema.Clients, c.Encode()); err != nil {
		return fmt.Errorf("add client: %w", err)
	}
	return l.push(ctx, schema.Clients, fmt.Sprintf("add client %s", name))
}

// ListClients returns the active client table.
func (l *Ledger) ListClients() ([]schema.Client, error) {
	rows, err := l.store.Read(schema.Clients)
	if err != nil {
		return nil, err
	}
	clients := make([]schema.Client, 0, len(rows))
	for _, row := range rows {
		clients = append(clients, schema.DecodeClient(row))
	}
	return clients, nil
}

// LogHours appends one hours entry. Duplicate entries are accepted by
// design: logging the same client, date, hours, and description twice
// produces two rows.
//
// At least one client must exist; beyond that the entry's own
// validation applies (non-negative hours, parseable date).
func (l *Ledger) LogHours(ctx context.Context, e schema.Entry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("log hours: %w", err)
	}
	clients, err := l.store.Read(schema.Clients)
	if err != nil {
		return fmt.Errorf("log hours: %w", err)
	}
	if len(clients) == 0 {
		return fmt.Errorf("log hours: %w", ErrNoClients)
	}

	if err := l.store.Append(schema.Hours, e.Encode()); err != nil {
		return fmt.Errorf("log hours: %w", err)
	}
	return l.push(ctx, schema.Hours, fmt.Sprintf("log %s hours for %s", formatFloat(e.Hours), e.Client))
}

// ListHours returns the active hours table. A malformed numeric cell
// surfaces here as an error carrying the row position.
func (l *Ledger) ListHours() ([]schema.Entry, error) {
	rows, err := l.store.Read(schema.Hours)
	if err != nil {
		return nil, err
	}
	entries := make([]schema.Entry, 0, len(rows))
	for i, row := range rows {
		e, err := schema.DecodeEntry(row)
		if err != nil {
			return nil, fmt.Errorf("hours row %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// SetGoal appends a goal row. An existing goal for the same month is
// not replaced: repeated saves accumulate rows, and monthly aggregation
// sums all of them. This matches the reference behavior; see DESIGN.md
// for the open question around it.
func (l *Ledger) SetGoal(ctx context.Context, g schema.Goal) error {
	if err := g.Validate(); err != nil {
		return fmt.Errorf("set goal: %w", err)
	}
	if err := l.store.Append(schema.Goals, g.Encode()); err != nil {
		return fmt.Errorf("set goal: %w", err)
	}
	return l.push(ctx, schema.Goals, fmt.Sprintf("set goal for month %s", g.Month))
}

// ListGoals returns the goals table, duplicates included.
func (l *Ledger) ListGoals() ([]schema.Goal, error) {
	rows, err := l.store.Read(schema.Goals)
	if err != nil {
		return nil, err
	}
	goals := make([]schema.Goal, 0, len(rows))
	for i, row := range rows {
		g, err := schema.DecodeGoal(row)
		if err != nil {
			return nil, fmt.Errorf("goals row %d: %w", i, err)
		}
		goals = append(goals, g)
	}
	return goals, nil
}

// AddCategory appends a category for a client. No uniqueness check:
// duplicate categories per client are allowed silently.
func (l *Ledger) AddCategory(ctx context.Context, client, category string) error {
	if strings.TrimSpace(category) == "" {
		return fmt.Errorf("add category: %w", ErrBlankName)
	}
	c := schema.Category{Client: client, Category: category}
	if err := l.store.Append(schema.Categories, c.Encode()); err != nil {
		return fmt.Errorf("add category: %w", err)
	}
	return l.push(ctx, schema.Categories, fmt.Sprintf("add category %s for %s", category, client))
}

// ListCategories returns the categories for one client, or all
// categories when client is empty.
func (l *Ledger) ListCategories(client string) ([]schema.Category, error) {
	rows, err := l.store.Read(schema.Categories)
	if err != nil {
		return nil, err
	}
	var cats []schema.Category
	for _, row := range rows {
		c := schema.DecodeCategory(row)
		if client == "" || c.Client == client {
			cats = append(cats, c)
		}
	}
	return cats, nil
}

// AddTodo appends a todo row in the active state. DateCreated defaults
// to today when empty; DateCompleted is forced empty regardless of input.
func (l *Ledger) AddTodo(ctx context.Context, t schema.Todo) error {
	if t.DateCreated == "" {
		t.DateCreated = l.today()
	}
	t.DateCompleted = ""
	if err := t.Validate(); err != nil {
		return fmt.Errorf("add todo: %w", err)
	}
	if err := l.store.Append(schema.Todos, t.Encode()); err != nil {
		return fmt.Errorf("add todo: %w", err)
	}
	return l.push(ctx, schema.Todos, fmt.Sprintf("add todo %q for %s", t.Task, t.Client))
}

// TodoRow pairs a decoded todo with its position in the table. The
// position is the identity used by the row-indexed operations.
type TodoRow struct {
	Index int
	Todo  schema.Todo
}

// ListTodos returns all todo rows with their table positions.
func (l *Ledger) ListTodos() ([]TodoRow, error) {
	rows, err := l.store.Read(schema.Todos)
	if err != nil {
		return nil, err
	}
	todos := make([]TodoRow, 0, len(rows))
	for i, row := range rows {
		t, err := schema.DecodeTodo(row)
		if err != nil {
			return nil, fmt.Errorf("todos row %d: %w", i, err)
		}
		todos = append(todos, TodoRow{Index: i, Todo: t})
	}
	return todos, nil
}

// ActiveTodos returns the open todos for one client (all clients when
// client is empty), with their table positions.
func (l *Ledger) ActiveTodos(client string) ([]TodoRow, error) {
	all, err := l.ListTodos()
	if err != nil {
		return nil, err
	}
	var active []TodoRow
	for _, tr := range all {
		if !tr.Todo.Active() {
			continue
		}
		if client != "" && tr.Todo.Client != client {
			continue
		}
		active = append(active, tr)
	}
	return active, nil
}

// CompleteTodo marks the todo at index completed with today's date.
// Completed is terminal: completing an already-completed row is an
// error, and no operation clears a completion date.
func (l *Ledger) CompleteTodo(ctx context.Context, index int) error {
	return l.mutateTodo(ctx, index, "complete todo", func(t *schema.Todo) error {
		if !t.Active() {
			return ErrAlreadyCompleted
		}
		t.DateCompleted = l.today()
		return nil
	})
}

// EditTodo updates the priority and notes of the todo at index.
func (l *Ledger) EditTodo(ctx context.Context, index, priority int, notes string) error {
	return l.mutateTodo(ctx, index, "edit todo", func(t *schema.Todo) error {
		if priority < 1 || priority > 5 {
			return fmt.Errorf("priority must be between 1 and 5 (got %d)", priority)
		}
		t.Priority = priority
		t.Notes = notes
		return nil
	})
}

// DeleteTodo removes the todo at index.
func (l *Ledger) DeleteTodo(ctx context.Context, index int) error {
	rows, err := l.store.Read(schema.Todos)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if index < 0 || index >= len(rows) {
		return fmt.Errorf("delete todo %d: %w", index, ErrRowOutOfRange)
	}
	rows = append(rows[:index], rows[index+1:]...)
	if err := l.store.Write(schema.Todos, rows); err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return l.push(ctx, schema.Todos, fmt.Sprintf("delete todo row %d", index))
}

// AddDayOff appends a days-off row.
func (l *Ledger) AddDayOff(ctx context.Context, d schema.DayOff) error {
	if err := l.store.Append(schema.DaysOff, d.Encode()); err != nil {
		return fmt.Errorf("add day off: %w", err)
	}
	return l.push(ctx, schema.DaysOff, fmt.Sprintf("add day off %s", d.Date))
}

// AddMeeting appends a meeting-notes row.
func (l *Ledger) AddMeeting(ctx context.Context, m schema.Meeting) error {
	if strings.TrimSpace(m.Meeting) == "" {
		return fmt.Errorf("add meeting: %w", ErrBlankName)
	}
	if err := l.store.Append(schema.Meetings, m.Encode()); err != nil {
		return fmt.Errorf("add meeting: %w", err)
	}
	return l.push(ctx, schema.Meetings, fmt.Sprintf("add meeting %q", m.Meeting))
}

// mutateTodo rewrites one row and the whole table around it.
func (l *Ledger) mutateTodo(ctx context.Context, index int, op string, fn func(*schema.Todo) error) error {
	rows, err := l.store.Read(schema.Todos)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if index < 0 || index >= len(rows) {
		return fmt.Errorf("%s %d: %w", op, index, ErrRowOutOfRange)
	}
	t, err := schema.DecodeTodo(rows[index])
	if err != nil {
		return fmt.Errorf("%s %d: %w", op, index, err)
	}
	if err := fn(&t); err != nil {
		return fmt.Errorf("%s %d: %w", op, index, err)
	}
	rows[index] = t.Encode()
	if err := l.store.Write(schema.Todos, rows); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return l.push(ctx, schema.Todos, fmt.Sprintf("%s row %d", op, index))
}

// push mirrors one table after a successful local write. The error, if
// any, reaches the caller as the operation's result: the local change
// is already committed and is not rolled back.
func (l *Ledger) push(ctx context.Context, table schema.Table, message string) error {
	if err := l.sync.Push(ctx, table, message); err != nil {
		l.logger.Printf("WARNING: local write to %s succeeded but push failed: %v", table.Name, err)
		return err
	}
	return nil
}

func formatFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
