package ordering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppend(t *testing.T) {
	// An empty column starts at the base step.
	assert.Equal(t, int64(1000), Append(nil))
	// Appending past a column whose max is 4000 lands at 5000.
	assert.Equal(t, int64(5000), Append([]int64{1000, 2500, 4000}))
}

func TestBetween(t *testing.T) {
	// The classic midpoint: between 1000 and 2000 sits 1500.
	assert.Equal(t, int64(1500), Between(1000, 2000))
	// Flooring: between 1000 and 1003 sits 1001, still strictly inside.
	assert.Equal(t, int64(1001), Between(1000, 1003))
}

func TestBeforeFirst(t *testing.T) {
	assert.Equal(t, int64(500), BeforeFirst(1000))
	assert.Equal(t, int64(1), BeforeFirst(3))
}

func TestGapTooSmall(t *testing.T) {
	assert.False(t, GapTooSmall(1000, 2000))
	assert.False(t, GapTooSmall(1000, 1002))
	// A gap of one cannot be split: floor((1000+1001)/2) == 1000.
	assert.True(t, GapTooSmall(1000, 1001))
	assert.True(t, GapTooSmall(1000, 1000))
}

func TestRebalanced(t *testing.T) {
	assert.Equal(t, int64(1000), Rebalanced(0))
	assert.Equal(t, int64(4000), Rebalanced(3))
}

func TestPlaceAfter(t *testing.T) {
	siblings := []int64{1000, 2000, 3000}

	// After the first ticket: midpoint of 1000 and 2000.
	pos, ok := PlaceAfter(siblings, 0)
	assert.True(t, ok)
	assert.Equal(t, int64(1500), pos)

	// Before the first ticket: half of the lowest position.
	pos, ok = PlaceAfter(siblings, -1)
	assert.True(t, ok)
	assert.Equal(t, int64(500), pos)

	// After the last ticket: one step beyond the max.
	pos, ok = PlaceAfter(siblings, 2)
	assert.True(t, ok)
	assert.Equal(t, int64(4000), pos)

	// Empty column: base step regardless of anchor.
	pos, ok = PlaceAfter(nil, -1)
	assert.True(t, ok)
	assert.Equal(t, int64(1000), pos)
}

func TestPlaceAfterExhaustedGap(t *testing.T) {
	// Inserting between 1000 and 1001 must be refused so the caller
	// rebalances first.
	_, ok := PlaceAfter([]int64{1000, 1001, 5000}, 0)
	assert.False(t, ok)

	// Inserting before a first ticket already at position 1 is likewise
	// exhausted: there is no room between 0 and 1.
	_, ok = PlaceAfter([]int64{1, 1000}, -1)
	assert.False(t, ok)
}

func TestPlaceAfterResultStrictlyBetween(t *testing.T) {
	siblings := []int64{1000, 1003, 2000}
	pos, ok := PlaceAfter(siblings, 0)
	assert.True(t, ok)
	assert.Greater(t, pos, siblings[0])
	assert.Less(t, pos, siblings[1])
}

func TestAnchorIndex(t *testing.T) {
	siblings := []int64{1000, 2000, 3000}

	// Exact match anchors on that sibling.
	assert.Equal(t, 1, AnchorIndex(siblings, 2000))
	// A target between siblings anchors on the lower one.
	assert.Equal(t, 0, AnchorIndex(siblings, 1500))
	// A target below every sibling means insert before first.
	assert.Equal(t, -1, AnchorIndex(siblings, 500))
	// A target above every sibling anchors on the last.
	assert.Equal(t, 2, AnchorIndex(siblings, 99999))
}
