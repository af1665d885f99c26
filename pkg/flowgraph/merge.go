package flowgraph

// Set returns a pointer to v. Use it to populate optional update fields.
//
//	return Update{Status: flowgraph.Set("success")}, nil
func Set[T any](v T) *T {
	return &v
}

// ClearString returns the sentinel that resets a string field to empty.
// A nil pointer in an update means "no change"; a pointer to "" clears.
func ClearString() *string {
	return Set("")
}

// MergeField copies *v into dst when v is non-nil.
func MergeField[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// MergeSlice replaces dst with v when v is non-nil.
// The slice is copied so later mutation of the update does not leak into state.
func MergeSlice[T any](dst *[]T, v []T) {
	if v == nil {
		return
	}
	out := make([]T, len(v))
	copy(out, v)
	*dst = out
}

// MergeCounter applies a loop counter update.
// Counters never decrease within a run: a value lower than the current one
// is ignored.
func MergeCounter(dst *int, v *int) {
	if v != nil && *v > *dst {
		*dst = *v
	}
}
