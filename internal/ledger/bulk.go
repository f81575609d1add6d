package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/tallyhq/tally/internal/schema"
)

// BulkEdit is a snapshot of one filtered slice of a table, taken when an
// edit surface opens. Committing the edit replaces exactly the rows the
// snapshot showed, re-merged with the untouched remainder by excluded
// key. Rows hidden by the filter (a different client's todos, say) can
// never be lost by the commit, which is the failure mode a naive
// replace-all-matching-filter invites.
type BulkEdit struct {
	table     schema.Table
	keyColumn int
	keys      map[string]bool
	view      [][]string
}

// BulkDiff summarizes what a commit changed, computed against the
// snapshot as row multisets.
type BulkDiff struct {
	Added   int
	Removed int
	Kept    int
}

// BeginBulkEdit snapshots the rows of table whose keyColumn value is in
// keys. The returned BulkEdit's view is what the edit surface should
// present.
func (l *Ledger) BeginBulkEdit(table schema.Table, keyColumn string, keys ...string) (*BulkEdit, error) {
	col := table.ColumnIndex(keyColumn)
	if col < 0 {
		return nil, fmt.Errorf("bulk edit: table %s has no column %q", table.Name, keyColumn)
	}

	keySet := make(map[string]bool, len(keys))
	for _, k := range keys {
		keySet[k] = true
	}

	rows, err := l.store.Read(table)
	if err != nil {
		return nil, fmt.Errorf("bulk edit: %w", err)
	}

	var view [][]string
	for _, row := range rows {
		if col < len(row) && keySet[row[col]] {
			view = append(view, row)
		}
	}

	return &BulkEdit{table: table, keyColumn: col, keys: keySet, view: view}, nil
}

// Rows returns the filtered snapshot presented for editing.
func (be *BulkEdit) Rows() [][]string { return be.view }

// CommitBulkEdit replaces the snapshot's slice of the table with the
// edited rows. Rows dropped from edited are deleted; rows present only
// in edited are added. The untouched remainder, every row whose key was
// outside the filter, is re-read at commit time and kept in place, so
// edits from another session to other keys survive.
//
// Every edited row must carry a key inside the filter; anything else is
// rejected with ErrKeyOutsideEdit before any write.
func (l *Ledger) CommitBulkEdit(ctx context.Context, be *BulkEdit, edited [][]string) (BulkDiff, error) {
	for _, row := range edited {
		if be.keyColumn >= len(row) || !be.keys[row[be.keyColumn]] {
			return BulkDiff{}, fmt.Errorf("bulk edit on %s: %w", be.table.Name, ErrKeyOutsideEdit)
		}
	}

	current, err := l.store.Read(be.table)
	if err != nil {
		return BulkDiff{}, fmt.Errorf("bulk edit: %w", err)
	}

	merged := make([][]string, 0, len(current))
	for _, row := range current {
		if be.keyColumn < len(row) && be.keys[row[be.keyColumn]] {
			continue // replaced by the edited subset below
		}
		merged = append(merged, row)
	}
	merged = append(merged, edited...)

	if err := l.store.Write(be.table, merged); err != nil {
		return BulkDiff{}, fmt.Errorf("bulk edit: %w", err)
	}

	diff := diffRows(be.view, edited)
	err = l.push(ctx, be.table, fmt.Sprintf("bulk edit %s (+%d -%d)", be.table.Name, diff.Added, diff.Removed))
	return diff, err
}

// diffRows compares two row sets as multisets.
func diffRows(before, after [][]string) BulkDiff {
	counts := make(map[string]int)
	for _, row := range before {
		counts[rowKey(row)]++
	}

	var diff BulkDiff
	for _, row := range after {
		k := rowKey(row)
		if counts[k] > 0 {
			counts[k]--
			diff.Kept++
		} else {
			diff.Added++
		}
	}
	for _, remaining := range counts {
		diff.Removed += remaining
	}
	return diff
}

// rowKey flattens a row for multiset comparison.
func rowKey(row []string) string {
	return strings.Join(row, "\x1f")
}
