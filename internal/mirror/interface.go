package mirror

import (
	"context"

	"github.com/tallyhq/tally/internal/schema"
)

// Syncer mirrors local table files to and from the remote store.
//
// Fetch must run before the first read of a table in a session; Push
// runs immediately after every local mutation of a table. A logical
// operation that touches N tables issues N independent pushes, each an
// independent point of failure: there is no batching and no rollback of
// the local write when a push fails.
type Syncer interface {
	// Fetch retrieves the table's remote content and installs it as the
	// local file.
	//
	// A missing remote object is not a failure: the local file is left
	// for local initialization. Any other remote failure is logged as a
	// warning and the session continues against existing local content
	// (stale-read fallback); Fetch returns nil in both cases.
	Fetch(ctx context.Context, table schema.Table) error

	// Push submits the table's current local file to the remote.
	//
	// The remote's current revision marker is read first and included
	// in the write, so a concurrent push from another session surfaces
	// as ErrConflict instead of being silently overwritten. On any
	// error the local write stands; the caller reports the divergence.
	Push(ctx context.Context, table schema.Table, message string) error

	// FetchAll fetches every table in the registry. Per-table failures
	// follow Fetch's fallback rules and do not stop the pass.
	FetchAll(ctx context.Context) error

	// PushAll pushes every table in the registry. The first hard error
	// stops the pass and is returned.
	PushAll(ctx context.Context, message string) error
}
