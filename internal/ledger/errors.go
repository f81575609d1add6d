package ledger

import "errors"

// Validation errors returned before any write happens. An operation that
// returns one of these has touched neither the local store nor the
// remote mirror.
var (
	// ErrBlankName is returned when a required name field is empty or
	// whitespace.
	ErrBlankName = errors.New("name is required")

	// ErrDuplicateClient is returned when adding a client whose name is
	// already present in the active client table. The match is exact
	// and case-sensitive; "Acme" and "acme" are different clients.
	ErrDuplicateClient = errors.New("client already exists")

	// ErrNoClients is returned when logging hours with no clients
	// defined yet.
	ErrNoClients = errors.New("no clients defined, add a client first")

	// ErrUnknownClient is returned by archive/restore when the named
	// client has no row in the source client table.
	ErrUnknownClient = errors.New("client not found")

	// ErrRowOutOfRange is returned when a row-indexed todo operation
	// points past the end of the table.
	ErrRowOutOfRange = errors.New("row index out of range")

	// ErrAlreadyCompleted is returned when completing a todo that
	// already has a completion date. There is no transition back to
	// active, so the call is a caller bug rather than a no-op.
	ErrAlreadyCompleted = errors.New("todo already completed")

	// ErrKeyOutsideEdit is returned when a bulk-edit commit contains a
	// row whose key was not part of the edited filter. Accepting it
	// would clobber rows the editor never showed.
	ErrKeyOutsideEdit = errors.New("edited row key outside the edited filter")
)
