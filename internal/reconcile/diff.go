// Package reconcile implements the row diff shared by every editable screen:
// load a snapshot, hand it to the presenter, take the edited copy back, and
// work out the minimal set of rows that need a write.
package reconcile

// Changed returns the edited version of every row whose values differ
// between the two snapshots.
//
// Equality is whole-row: a row counts as changed if any column differs, and
// the caller gets the full edited row back, never a column-level patch. The
// mechanics mirror a concat-and-dedup: rows byte-identical across both
// snapshots cancel out, and any key with a surviving row is returned from
// the edited side (always the latest state, including rows that exist only
// in the edited snapshot).
//
// Changed(t, t, key) is empty for any snapshot t.
func Changed[T comparable](original, edited []T, key func(T) string) []T {
	counts := make(map[T]int, len(original)+len(edited))
	for _, row := range original {
		counts[row]++
	}
	for _, row := range edited {
		counts[row]++
	}

	changedKeys := make(map[string]bool)
	for _, row := range original {
		if counts[row] == 1 {
			changedKeys[key(row)] = true
		}
	}
	for _, row := range edited {
		if counts[row] == 1 {
			changedKeys[key(row)] = true
		}
	}

	var changed []T
	for _, row := range edited {
		if changedKeys[key(row)] {
			changed = append(changed, row)
		}
	}
	return changed
}
