// Package store provides the local table store: the authoritative local
// copy of each table, read and written whole.
package store

import "github.com/tallyhq/tally/internal/schema"

// Store is the local table store interface.
//
// Implementations hold one table per backing object (a CSV file on disk,
// or a map entry in memory for tests). Rows are positional: there is no
// primary key, and callers identify a row by its index in the sequence
// returned from Read.
//
// The store performs no schema validation on writes. A caller that writes
// rows with dropped or renamed columns gets them back exactly as written;
// shape errors surface later, when a typed decode is attempted.
type Store interface {
	// Read returns the table's data rows (header excluded) in file order.
	//
	// If the table's backing object does not exist yet, it is first
	// initialized with the declared header and an empty row set, and
	// Read returns no rows.
	Read(table schema.Table) ([][]string, error)

	// Write replaces the table's entire content with the given rows.
	// The declared header is always written first.
	Write(table schema.Table, rows [][]string) error

	// Append adds one row to the end of the table. Equivalent to
	// Read + Write with the row appended; no stronger atomicity.
	Append(table schema.Table, row []string) error

	// ReadRaw returns the table file's exact bytes, header included.
	// Used by the mirror syncer to push file content verbatim.
	ReadRaw(table schema.Table) ([]byte, error)

	// WriteRaw replaces the table file's exact bytes, header included.
	// Used by the mirror syncer to install fetched remote content.
	WriteRaw(table schema.Table, data []byte) error
}
