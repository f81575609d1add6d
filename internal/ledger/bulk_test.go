package ledger

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/tallyhq/tally/internal/schema"
)

func seedBulkTodos(t *testing.T, l *Ledger) {
	t.Helper()
	ctx := context.Background()
	rows := []schema.Todo{
		{Client: "Acme", Category: "Billing", Task: "Invoice Jan", Priority: 3},
		{Client: "Globex", Category: "Ops", Task: "Renew cert", Priority: 2},
		{Client: "Acme", Category: "Billing", Task: "Invoice Feb", Priority: 4},
	}
	for _, td := range rows {
		if err := l.AddTodo(ctx, td); err != nil {
			t.Fatalf("AddTodo(%s) failed: %v", td.Task, err)
		}
	}
}

func TestBulkEdit_ViewIsFiltered(t *testing.T) {
	l, _, _ := testLedger(t)
	seedBulkTodos(t, l)

	be, err := l.BeginBulkEdit(schema.Todos, "Client", "Acme")
	if err != nil {
		t.Fatalf("BeginBulkEdit() failed: %v", err)
	}
	if len(be.Rows()) != 2 {
		t.Fatalf("view has %d rows, want 2 Acme rows", len(be.Rows()))
	}
	for _, row := range be.Rows() {
		if row[0] != "Acme" {
			t.Errorf("view leaked a %s row", row[0])
		}
	}
}

func TestBulkEdit_DropIsDelete(t *testing.T) {
	l, st, _ := testLedger(t)
	seedBulkTodos(t, l)

	be, err := l.BeginBulkEdit(schema.Todos, "Client", "Acme")
	if err != nil {
		t.Fatalf("BeginBulkEdit() failed: %v", err)
	}

	// Keep only the first Acme row; dropping the second deletes it.
	edited := [][]string{be.Rows()[0]}
	diff, err := l.CommitBulkEdit(context.Background(), be, edited)
	if err != nil {
		t.Fatalf("CommitBulkEdit() failed: %v", err)
	}
	if diff.Removed != 1 || diff.Kept != 1 || diff.Added != 0 {
		t.Errorf("diff = %+v, want 1 removed, 1 kept", diff)
	}

	rows, _ := st.Read(schema.Todos)
	if len(rows) != 2 {
		t.Fatalf("table has %d rows, want 2", len(rows))
	}
}

func TestBulkEdit_HiddenRowsSurvive(t *testing.T) {
	// The classic data-loss case: edit Acme's rows while Globex's are
	// filtered out of view, then commit. Globex must survive.
	l, st, _ := testLedger(t)
	seedBulkTodos(t, l)

	be, err := l.BeginBulkEdit(schema.Todos, "Client", "Acme")
	if err != nil {
		t.Fatalf("BeginBulkEdit() failed: %v", err)
	}
	if _, err := l.CommitBulkEdit(context.Background(), be, nil); err != nil {
		t.Fatalf("CommitBulkEdit() failed: %v", err)
	}

	rows, _ := st.Read(schema.Todos)
	want := [][]string{{"Globex", "Ops", "Renew cert", "2", "2024-01-15", "", ""}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %v, want only the hidden Globex row %v", rows, want)
	}
}

func TestBulkEdit_ConcurrentOtherKeyEditSurvives(t *testing.T) {
	// Another session appends a Globex row between Begin and Commit.
	// The commit re-reads the remainder, so the new row survives.
	l, st, _ := testLedger(t)
	seedBulkTodos(t, l)

	be, err := l.BeginBulkEdit(schema.Todos, "Client", "Acme")
	if err != nil {
		t.Fatalf("BeginBulkEdit() failed: %v", err)
	}

	late := schema.Todo{Client: "Globex", Category: "Ops", Task: "Rotate keys", Priority: 1, DateCreated: "2024-01-15"}
	if err := st.Append(schema.Todos, late.Encode()); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	if _, err := l.CommitBulkEdit(context.Background(), be, be.Rows()); err != nil {
		t.Fatalf("CommitBulkEdit() failed: %v", err)
	}

	rows, _ := st.Read(schema.Todos)
	globex := 0
	for _, row := range rows {
		if row[0] == "Globex" {
			globex++
		}
	}
	if globex != 2 {
		t.Errorf("Globex rows = %d, want 2 (late append must survive)", globex)
	}
}

func TestBulkEdit_RejectsForeignKeyRow(t *testing.T) {
	l, _, cs := testLedger(t)
	seedBulkTodos(t, l)
	cs.pushes = nil

	be, err := l.BeginBulkEdit(schema.Todos, "Client", "Acme")
	if err != nil {
		t.Fatalf("BeginBulkEdit() failed: %v", err)
	}

	smuggled := schema.Todo{Client: "Globex", Category: "Ops", Task: "Sneaky", Priority: 1, DateCreated: "2024-01-15"}
	_, err = l.CommitBulkEdit(context.Background(), be, [][]string{smuggled.Encode()})
	if !errors.Is(err, ErrKeyOutsideEdit) {
		t.Fatalf("err = %v, want ErrKeyOutsideEdit", err)
	}
	if len(cs.pushes) != 0 {
		t.Error("rejected commit must not push")
	}
}

func TestBulkEdit_UnknownColumn(t *testing.T) {
	l, _, _ := testLedger(t)
	if _, err := l.BeginBulkEdit(schema.Todos, "Owner", "Acme"); err == nil {
		t.Error("unknown key column should fail")
	}
}
