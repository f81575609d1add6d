package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the on-disk date format for all date columns.
const DateLayout = "2006-01-02"

// NoCategoryPlaceholder is the value the entry surface shows when a client
// has no categories yet. It is never a real category and a todo must not
// be filed under it.
const NoCategoryPlaceholder = "No categories available"

// Client is one row of the clients table.
type Client struct {
	Name  string
	Color string
}

func (c Client) Encode() []string { return []string{c.Name, c.Color} }

// DecodeClient parses a clients row. Missing trailing columns decode as
// empty strings; extra columns are ignored.
func DecodeClient(row []string) Client {
	return Client{Name: col(row, 0), Color: col(row, 1)}
}

// Entry is one row of the hours table: a single log of billable time.
type Entry struct {
	Date        string
	Client      string
	Hours       float64
	Description string
}

func (e Entry) Encode() []string {
	return []string{e.Date, e.Client, formatHours(e.Hours), e.Description}
}

// DecodeEntry parses an hours row. A non-numeric Hours cell is an error:
// the store never validates shape, so this is where a hand-edited file
// surfaces (table and row context are added by the caller).
func DecodeEntry(row []string) (Entry, error) {
	h, err := parseHours(col(row, 2))
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Date:        col(row, 0),
		Client:      col(row, 1),
		Hours:       h,
		Description: col(row, 3),
	}, nil
}

// Validate checks the fields a new log entry must carry.
func (e Entry) Validate() error {
	if e.Client == "" {
		return fmt.Errorf("client is required")
	}
	if e.Hours < 0 {
		return fmt.Errorf("hours must be >= 0 (got %v)", e.Hours)
	}
	if _, err := time.Parse(DateLayout, e.Date); err != nil {
		return fmt.Errorf("date must be %s: %w", DateLayout, err)
	}
	return nil
}

// Goal is one row of the goals table. Month is a two-digit string ("01"
// through "12"); repeated saves for the same month accumulate rows and
// aggregation sums them all.
type Goal struct {
	Month     string
	GoalHours float64
}

func (g Goal) Encode() []string {
	return []string{g.Month, formatHours(g.GoalHours)}
}

func DecodeGoal(row []string) (Goal, error) {
	h, err := parseHours(col(row, 1))
	if err != nil {
		return Goal{}, err
	}
	return Goal{Month: col(row, 0), GoalHours: h}, nil
}

func (g Goal) Validate() error {
	m, err := strconv.Atoi(g.Month)
	if err != nil || m < 1 || m > 12 || len(g.Month) != 2 {
		return fmt.Errorf("month must be a two-digit string 01-12 (got %q)", g.Month)
	}
	if g.GoalHours < 0 {
		return fmt.Errorf("goal hours must be >= 0 (got %v)", g.GoalHours)
	}
	return nil
}

// Category is one row of the categories table. Many categories may
// reference one client; duplicates are allowed.
type Category struct {
	Client   string
	Category string
}

func (c Category) Encode() []string { return []string{c.Client, c.Category} }

func DecodeCategory(row []string) Category {
	return Category{Client: col(row, 0), Category: col(row, 1)}
}

// Todo is one row of the todos table. An empty DateCompleted is the sole
// state flag: empty means active, anything else means completed. There is
// no transition back from completed to active.
type Todo struct {
	Client        string
	Category      string
	Task          string
	Priority      int
	DateCreated   string
	DateCompleted string
	Notes         string
}

func (t Todo) Encode() []string {
	return []string{
		t.Client, t.Category, t.Task, strconv.Itoa(t.Priority),
		t.DateCreated, t.DateCompleted, t.Notes,
	}
}

func DecodeTodo(row []string) (Todo, error) {
	p, err := strconv.Atoi(strings.TrimSpace(col(row, 3)))
	if err != nil {
		return Todo{}, fmt.Errorf("priority is not an integer: %w", err)
	}
	return Todo{
		Client:        col(row, 0),
		Category:      col(row, 1),
		Task:          col(row, 2),
		Priority:      p,
		DateCreated:   col(row, 4),
		DateCompleted: col(row, 5),
		Notes:         col(row, 6),
	}, nil
}

// Active reports whether the todo is still open.
func (t Todo) Active() bool { return t.DateCompleted == "" }

func (t Todo) Validate() error {
	if strings.TrimSpace(t.Task) == "" {
		return fmt.Errorf("task is required")
	}
	if t.Category == "" || t.Category == NoCategoryPlaceholder {
		return fmt.Errorf("a real category is required")
	}
	if t.Priority < 1 || t.Priority > 5 {
		return fmt.Errorf("priority must be between 1 and 5 (got %d)", t.Priority)
	}
	return nil
}

// DayOff is one row of the daysoff table.
type DayOff struct {
	Date   string
	Reason string
}

func (d DayOff) Encode() []string { return []string{d.Date, d.Reason} }

func DecodeDayOff(row []string) DayOff {
	return DayOff{Date: col(row, 0), Reason: col(row, 1)}
}

// Meeting is one row of the meetings table.
type Meeting struct {
	Date    string
	Client  string
	Meeting string
	Notes   string
}

func (m Meeting) Encode() []string {
	return []string{m.Date, m.Client, m.Meeting, m.Notes}
}

func DecodeMeeting(row []string) Meeting {
	return Meeting{Date: col(row, 0), Client: col(row, 1), Meeting: col(row, 2), Notes: col(row, 3)}
}

// col returns row[i] or "" when the row is short. CSV rows written by
// older revisions of the app can be missing trailing columns.
func col(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func parseHours(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}

// formatHours renders a float the way the hours widget steps it: no
// trailing zeros, plain decimal notation.
func formatHours(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
