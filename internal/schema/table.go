// Package schema declares the table layout for tally's flat-file data model.
//
// Every entity is a Table: an ordered sequence of rows sharing a fixed column
// set, stored as one CSV file per table. Four of the active tables have an
// archive mirror with identical columns; archiving a client moves its rows
// from the active table to the mirror, restoring moves them back.
package schema

import (
	"fmt"
	"strings"
)

// Table identifies one entity table and its declared columns.
type Table struct {
	// Name is the table identifier and the basename of its CSV file
	// (e.g. "hours" -> hours.csv).
	Name string

	// Columns is the declared header, in file order.
	Columns []string

	// Archive is the name of the archive mirror table, or empty if the
	// table has no archive pair (goals, daysoff, meetings).
	Archive string
}

// Filename returns the canonical CSV filename for this table.
func (t Table) Filename() string {
	return t.Name + ".csv"
}

// ColumnIndex returns the position of the named column, or -1 if the
// table does not declare it.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasArchive reports whether the table participates in archive/restore.
func (t Table) HasArchive() bool {
	return t.Archive != ""
}

// Active tables.
var (
	Clients    = Table{Name: "clients", Columns: []string{"Client", "Color"}, Archive: "archive_clients"}
	Hours      = Table{Name: "hours", Columns: []string{"Date", "Client", "Hours", "Description"}, Archive: "archive_hours"}
	Goals      = Table{Name: "goals", Columns: []string{"Month", "GoalHours"}}
	Categories = Table{Name: "categories", Columns: []string{"Client", "Category"}, Archive: "archive_categories"}
	Todos      = Table{Name: "todos", Columns: []string{"Client", "Category", "Task", "Priority", "DateCreated", "DateCompleted", "Notes"}, Archive: "archive_todos"}
	DaysOff    = Table{Name: "daysoff", Columns: []string{"Date", "Reason"}}
	Meetings   = Table{Name: "meetings", Columns: []string{"Date", "Client", "Meeting", "Notes"}}
)

// Archive mirrors. Same columns as their active counterparts.
var (
	ArchiveClients    = Table{Name: "archive_clients", Columns: Clients.Columns}
	ArchiveHours      = Table{Name: "archive_hours", Columns: Hours.Columns}
	ArchiveCategories = Table{Name: "archive_categories", Columns: Categories.Columns}
	ArchiveTodos      = Table{Name: "archive_todos", Columns: Todos.Columns}
)

// All lists every table, active and archive, in registry order.
// Iteration order is stable so that full fetch/push cycles are deterministic.
var All = []Table{
	Clients, Hours, Goals, Categories, Todos, DaysOff, Meetings,
	ArchiveClients, ArchiveHours, ArchiveCategories, ArchiveTodos,
}

// Linked lists the active tables that move rows on archive/restore,
// in the order the lifecycle manager processes them.
var Linked = []Table{Clients, Categories, Todos, Hours}

// Lookup returns the table with the given name.
func Lookup(name string) (Table, error) {
	for _, t := range All {
		if t.Name == name {
			return t, nil
		}
	}
	return Table{}, fmt.Errorf("unknown table %q", name)
}

// ArchiveOf returns the archive mirror for an active table.
func ArchiveOf(t Table) (Table, error) {
	if !t.HasArchive() {
		return Table{}, fmt.Errorf("table %q has no archive mirror", t.Name)
	}
	return Lookup(t.Archive)
}

// ClientColumn returns the index of the "Client" column for tables that
// reference a client, or -1 for tables that don't (goals, daysoff).
func ClientColumn(t Table) int {
	return t.ColumnIndex("Client")
}

// NormalizeName lowercases and trims a table name as supplied on the
// command line.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
