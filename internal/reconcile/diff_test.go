package reconcile

import (
	"reflect"
	"testing"
)

type row struct {
	ID       string
	Create   bool
	Selected bool
}

func key(r row) string { return r.ID }

func TestChangedReturnsOnlyEditedRows(t *testing.T) {
	original := []row{
		{ID: "a", Selected: false},
		{ID: "b", Selected: false},
		{ID: "c", Selected: true},
	}
	edited := []row{
		{ID: "a", Selected: true},
		{ID: "b", Selected: false},
		{ID: "c", Selected: true},
	}

	changed := Changed(original, edited, key)
	want := []row{{ID: "a", Selected: true}}
	if !reflect.DeepEqual(changed, want) {
		t.Errorf("Changed = %v, want %v", changed, want)
	}
}

func TestChangedIdenticalSnapshotsIsEmpty(t *testing.T) {
	rows := []row{{ID: "a"}, {ID: "b", Selected: true}}
	if changed := Changed(rows, rows, key); len(changed) != 0 {
		t.Errorf("Changed on identical snapshots = %v, want empty", changed)
	}
}

func TestChangedAllRowsEdited(t *testing.T) {
	original := []row{{ID: "a"}, {ID: "b"}}
	edited := []row{{ID: "a", Selected: true}, {ID: "b", Selected: true}}

	changed := Changed(original, edited, key)
	if len(changed) != 2 {
		t.Fatalf("Changed returned %d rows, want 2", len(changed))
	}
	for _, r := range changed {
		if !r.Selected {
			t.Errorf("Changed returned original row %v, want the edited version", r)
		}
	}
}

func TestChangedIsIdempotentOverResubmission(t *testing.T) {
	original := []row{{ID: "a"}, {ID: "b"}}
	edited := []row{{ID: "a", Selected: true}, {ID: "b"}}

	first := Changed(original, edited, key)
	if len(first) != 1 {
		t.Fatalf("first diff returned %d rows, want 1", len(first))
	}

	// After the write lands, the reloaded snapshot equals the edited table.
	// Resubmitting produces no further writes.
	if second := Changed(edited, edited, key); len(second) != 0 {
		t.Errorf("resubmission diff = %v, want empty", second)
	}
}

func TestPartitionSplitsByCreateFlag(t *testing.T) {
	changed := []row{
		{ID: "a", Create: false},
		{ID: "b", Create: true},
		{ID: "c", Create: false},
	}

	updates, creates := Partition(changed, func(r row) bool { return r.Create })
	if len(updates) != 2 || len(creates) != 1 {
		t.Fatalf("Partition = %d updates, %d creates, want 2 and 1", len(updates), len(creates))
	}
	if creates[0].ID != "b" {
		t.Errorf("creates[0].ID = %q, want %q", creates[0].ID, "b")
	}
}

func TestPartitionEmptyInput(t *testing.T) {
	updates, creates := Partition(nil, func(r row) bool { return r.Create })
	if len(updates) != 0 || len(creates) != 0 {
		t.Errorf("Partition(nil) = %v, %v, want empty", updates, creates)
	}
}
