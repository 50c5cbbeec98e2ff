package reconcile

// Partition splits the changed set into rows that update an existing record
// and rows that create a new one, keyed on the create flag carried through
// from materialization. The two slices are disjoint and together cover the
// input.
func Partition[T any](changed []T, isCreate func(T) bool) (updates, creates []T) {
	for _, row := range changed {
		if isCreate(row) {
			creates = append(creates, row)
		} else {
			updates = append(updates, row)
		}
	}
	return updates, creates
}
