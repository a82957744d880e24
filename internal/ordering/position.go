// Package ordering computes sparse position values for tickets inside a
// board column.  Tickets within one (project, status) partition are sorted
// by a numeric position; positions are handed out with a fixed step so that
// moving a single ticket normally rewrites only that ticket's row.  The
// functions here are pure: they never touch the database, they only look at
// the positions of the tickets already in the destination column.
package ordering

// Step is the spacing between positions handed out on append and after a
// rebalance.  A fresh column holds tickets at 1000, 2000, 3000, ...
const Step int64 = 1000

// MinGap is the smallest usable distance between two adjacent positions.
// Below this, a midpoint insert would floor onto one of its neighbors, so
// the column must be rebalanced before the insert can proceed.
const MinGap int64 = 2

// Append returns the position for a ticket placed at the end of a column.
// The slice must hold the column's current positions in ascending order;
// an empty column starts at Step.
func Append(siblings []int64) int64 {
	if len(siblings) == 0 {
		return Step
	}
	return siblings[len(siblings)-1] + Step
}

// Between returns the midpoint position for inserting between two adjacent
// tickets.  Integer division floors the result, which is why callers must
// verify the gap with GapTooSmall first: flooring inside an exhausted gap
// would collide with the lower neighbor.
func Between(a, b int64) int64 {
	return (a + b) / 2
}

// AfterLast returns the position for inserting after the column's last
// ticket when no upper neighbor bounds the insert.
func AfterLast(a int64) int64 {
	return a + Step
}

// BeforeFirst returns the position for inserting ahead of the column's
// first ticket.  Halving keeps the result strictly below b as long as the
// gap down to zero is still usable.
func BeforeFirst(b int64) int64 {
	return b / 2
}

// GapTooSmall reports whether the distance between two bounding positions
// has been exhausted.  a is the lower bound (zero when inserting before the
// first ticket), b the upper bound.
func GapTooSmall(a, b int64) bool {
	return b-a < MinGap
}

// Rebalanced returns the position a ticket at index i (zero-based) receives
// when its column is rewritten to uniform spacing.
func Rebalanced(i int) int64 {
	return int64(i+1) * Step
}

// PlaceAfter computes the position for inserting into siblings directly
// after the ticket at anchorIdx.  anchorIdx == -1 means "before the first
// ticket"; anchorIdx == len(siblings)-1 means "after the last".  The slice
// must be sorted ascending and must not contain the ticket being moved.
//
// The second return value is false when the bounding gap is exhausted; the
// caller is expected to rebalance the column and try again.
func PlaceAfter(siblings []int64, anchorIdx int) (int64, bool) {
	if len(siblings) == 0 {
		return Step, true
	}
	if anchorIdx < 0 {
		first := siblings[0]
		if GapTooSmall(0, first) {
			return 0, false
		}
		return BeforeFirst(first), true
	}
	if anchorIdx >= len(siblings)-1 {
		return AfterLast(siblings[len(siblings)-1]), true
	}
	a, b := siblings[anchorIdx], siblings[anchorIdx+1]
	if GapTooSmall(a, b) {
		return 0, false
	}
	return Between(a, b), true
}

// AnchorIndex locates the anchor for a move request that carries the
// anchor's current position rather than its identity.  It returns the index
// of the last sibling whose position does not exceed target, or -1 when
// every sibling sits above it (insert before first).  Tolerating inexact
// targets keeps a slightly stale client usable: the ticket still lands next
// to where the user dropped it.
func AnchorIndex(siblings []int64, target int64) int {
	idx := -1
	for i, p := range siblings {
		if p <= target {
			idx = i
			continue
		}
		break
	}
	return idx
}
