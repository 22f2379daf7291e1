package statusx

import "golang.org/x/exp/constraints"

// Packed status-byte helpers. Flags are single-bit masks; the whole word
// is read and written atomically on the targets we care about.

// Set turns the mask bits on.
func Set[T constraints.Unsigned](status *T, mask T) { *status |= mask }

// Clr turns the mask bits off.
func Clr[T constraints.Unsigned](status *T, mask T) { *status &^= mask }

// Put sets or clears the mask bits according to v.
func Put[T constraints.Unsigned](status *T, mask T, v bool) {
	if v {
		*status |= mask
	} else {
		*status &^= mask
	}
}

// Any reports whether any of the mask bits are set.
func Any[T constraints.Unsigned](status, mask T) bool { return status&mask != 0 }

// None reports whether all of the mask bits are clear.
func None[T constraints.Unsigned](status, mask T) bool { return status&mask == 0 }
