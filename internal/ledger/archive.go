package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/tallyhq/tally/internal/schema"
)

// archiveStep records enough state to undo one table move: the exact
// prior content of both files it rewrote. The saga compensates by
// writing these back.
type archiveStep struct {
	src     schema.Table
	dst     schema.Table
	prevSrc [][]string
	prevDst [][]string
}

// ArchiveClient moves every row for the named client out of the four
// linked active tables (clients, categories, todos, hours) and appends
// them to the corresponding archive tables.
//
// The local moves run as a saga: each table move records its undo, and
// a failure part way through compensates the moves already made, so the
// local store never ends up with a row in both places or in neither.
// The 8 remote pushes (4 active + 4 archive) happen only after all
// local moves succeed; push failures are reported per table and do not
// roll anything back.
func (l *Ledger) ArchiveClient(ctx context.Context, name string) error {
	return l.moveClient(ctx, name, false)
}

// RestoreClient is the mirror image of ArchiveClient: rows for the
// named client move from the four archive tables back to active.
// Archiving a client and restoring it yields the same multiset of rows
// per table as before, provided no other session wrote in between.
func (l *Ledger) RestoreClient(ctx context.Context, name string) error {
	return l.moveClient(ctx, name, true)
}

func (l *Ledger) moveClient(ctx context.Context, name string, restore bool) error {
	op := "archive client"
	if restore {
		op = "restore client"
	}

	// The client must exist in the source client table before anything
	// moves.
	srcClients := schema.Clients
	if restore {
		srcClients = schema.ArchiveClients
	}
	present, err := l.clientExists(srcClients, name)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !present {
		return fmt.Errorf("%s %q: %w", op, name, ErrUnknownClient)
	}

	var done []archiveStep
	for _, active := range schema.Linked {
		arch, err := schema.ArchiveOf(active)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		src, dst := active, arch
		if restore {
			src, dst = arch, active
		}
		step, err := l.moveRows(src, dst, name)
		if err != nil {
			l.compensate(done)
			return fmt.Errorf("%s %q: step %s -> %s failed: %w", op, name, src.Name, dst.Name, err)
		}
		done = append(done, step)
	}

	// Local state is consistent from here on. Each push is an
	// independent point of failure; collect rather than stop.
	var pushErrs []error
	for _, step := range done {
		msg := fmt.Sprintf("%s %s (%s)", op, name, step.src.Name)
		if err := l.push(ctx, step.src, msg); err != nil {
			pushErrs = append(pushErrs, err)
		}
		if err := l.push(ctx, step.dst, msg); err != nil {
			pushErrs = append(pushErrs, err)
		}
	}
	return errors.Join(pushErrs...)
}

// moveRows appends src's rows matching the client to dst, then removes
// them from src. Both prior contents are captured for compensation.
func (l *Ledger) moveRows(src, dst schema.Table, client string) (archiveStep, error) {
	col := schema.ClientColumn(src)
	if col < 0 {
		return archiveStep{}, fmt.Errorf("table %s has no Client column", src.Name)
	}

	srcRows, err := l.store.Read(src)
	if err != nil {
		return archiveStep{}, err
	}
	dstRows, err := l.store.Read(dst)
	if err != nil {
		return archiveStep{}, err
	}

	step := archiveStep{
		src:     src,
		dst:     dst,
		prevSrc: cloneRows(srcRows),
		prevDst: cloneRows(dstRows),
	}

	var keep, moved [][]string
	for _, row := range srcRows {
		if col < len(row) && row[col] == client {
			moved = append(moved, row)
		} else {
			keep = append(keep, row)
		}
	}

	// Append-then-remove: write the destination first so a crash
	// between the two writes duplicates rows instead of losing them.
	if err := l.store.Write(dst, append(dstRows, moved...)); err != nil {
		return archiveStep{}, err
	}
	if err := l.store.Write(src, keep); err != nil {
		// Undo the destination write so this step leaves no trace.
		if undoErr := l.store.Write(dst, step.prevDst); undoErr != nil {
			l.logger.Printf("WARNING: failed to undo %s after partial move: %v", dst.Name, undoErr)
		}
		return archiveStep{}, err
	}

	return step, nil
}

// compensate restores the prior content of every completed step, newest
// first.
func (l *Ledger) compensate(done []archiveStep) {
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if err := l.store.Write(step.src, step.prevSrc); err != nil {
			l.logger.Printf("WARNING: compensation of %s failed: %v", step.src.Name, err)
		}
		if err := l.store.Write(step.dst, step.prevDst); err != nil {
			l.logger.Printf("WARNING: compensation of %s failed: %v", step.dst.Name, err)
		}
	}
}

func (l *Ledger) clientExists(table schema.Table, name string) (bool, error) {
	rows, err := l.store.Read(table)
	if err != nil {
		return false, err
	}
	for _, row := range rows {
		if schema.DecodeClient(row).Name == name {
			return true, nil
		}
	}
	return false, nil
}

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}
