package reorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/stitcher/internal/models"
	"github.com/lehigh-university-libraries/stitcher/internal/ordering"
)

func newFixture(t *testing.T, ids ...string) (*ordering.List, *Controller) {
	t.Helper()
	l := ordering.NewList()
	for _, id := range ids {
		require.NoError(t, l.Append(models.ImageEntry{ID: id, Label: id}))
	}
	layout := RowLayout{Rows: l, Origin: Point{X: 0, Y: 100}, RowHeight: 20, Width: 300}
	return l, NewController(l, layout)
}

// fixedTops lets a test pin row tops, including ties.
type fixedTops map[string]float64

func (f fixedTops) Top(id string) (float64, bool) {
	top, ok := f[id]
	return top, ok
}

func (f fixedTops) HitTest(Point) (string, bool) { return "", false }

func TestDragDownMovesAfter(t *testing.T) {
	l, c := newFixture(t, "a", "b", "c", "d")

	require.NoError(t, c.Begin("a"))
	assert.Equal(t, Dragging, c.State())

	require.NoError(t, c.MoveOver("c"))
	assert.Equal(t, []string{"b", "c", "a", "d"}, l.OrderedIDs())

	c.End()
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, DragSession{}, c.Session())
}

func TestDragUpMovesBefore(t *testing.T) {
	l, c := newFixture(t, "a", "b", "c", "d")

	require.NoError(t, c.Begin("d"))
	require.NoError(t, c.MoveOver("b"))
	assert.Equal(t, []string{"a", "d", "b", "c"}, l.OrderedIDs())

	// continued drag keeps following the source's new position
	require.NoError(t, c.MoveOver("a"))
	assert.Equal(t, []string{"d", "a", "b", "c"}, l.OrderedIDs())
	require.NoError(t, c.MoveOver("c"))
	assert.Equal(t, []string{"a", "b", "c", "d"}, l.OrderedIDs())
}

func TestEqualTopsResolveToAfter(t *testing.T) {
	l := ordering.NewList()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, l.Append(models.ImageEntry{ID: id}))
	}
	c := NewController(l, fixedTops{"a": 10, "b": 10, "c": 10})

	require.NoError(t, c.Begin("c"))
	require.NoError(t, c.MoveOver("a"))
	assert.Equal(t, []string{"a", "c", "b"}, l.OrderedIDs())
}

func TestMoveOverSelfIsNoop(t *testing.T) {
	l, c := newFixture(t, "a", "b")
	require.NoError(t, c.Begin("b"))
	require.NoError(t, c.MoveOver("b"))
	assert.Equal(t, []string{"a", "b"}, l.OrderedIDs())
	assert.Equal(t, Dragging, c.State())
}

func TestIdleTransitionsAreIgnored(t *testing.T) {
	l, c := newFixture(t, "a", "b", "c")

	require.NoError(t, c.MoveOver("a"))
	assert.Equal(t, "", c.DropOnDiscard())
	require.NoError(t, c.TouchMove(Point{X: 5, Y: 101}))
	c.End()

	assert.Equal(t, []string{"a", "b", "c"}, l.OrderedIDs())
	assert.Equal(t, Idle, c.State())
}

func TestBeginUnknownID(t *testing.T) {
	_, c := newFixture(t, "a")
	err := c.Begin("nope")
	assert.ErrorIs(t, err, ordering.ErrNotFound)
	assert.Equal(t, Idle, c.State())
}

func TestBeginSupersedesSession(t *testing.T) {
	_, c := newFixture(t, "a", "b")
	require.NoError(t, c.Begin("a"))
	require.NoError(t, c.Begin("b"))
	assert.Equal(t, DragSession{Active: true, SourceID: "b"}, c.Session())
}

func TestMoveOverUnknownTarget(t *testing.T) {
	l, c := newFixture(t, "a", "b")
	require.NoError(t, c.Begin("a"))
	err := c.MoveOver("ghost")
	assert.ErrorIs(t, err, ordering.ErrNotFound)
	assert.Equal(t, []string{"a", "b"}, l.OrderedIDs())
	assert.Equal(t, Dragging, c.State())
}

func TestDropOnDiscard(t *testing.T) {
	l, c := newFixture(t, "a", "b", "c")

	require.NoError(t, c.Begin("b"))
	assert.Equal(t, "b", c.DropOnDiscard())
	assert.Equal(t, []string{"a", "c"}, l.OrderedIDs())
	assert.Equal(t, Idle, c.State())
}

func TestDropOnDiscardAfterExternalRemove(t *testing.T) {
	l, c := newFixture(t, "a", "b")
	require.NoError(t, c.Begin("a"))
	l.Remove("a")

	assert.Equal(t, "", c.DropOnDiscard())
	assert.Equal(t, []string{"b"}, l.OrderedIDs())
	assert.Equal(t, Idle, c.State())
}

func TestMoveOverAfterSourceVanishes(t *testing.T) {
	l, c := newFixture(t, "a", "b", "c")
	require.NoError(t, c.Begin("a"))
	l.Remove("a")

	require.NoError(t, c.MoveOver("b"))
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, []string{"b", "c"}, l.OrderedIDs())
}

func TestRemoveDraggedEntryEndsSession(t *testing.T) {
	l, c := newFixture(t, "a", "b", "c")
	require.NoError(t, c.Begin("b"))

	assert.True(t, c.Remove("b"))
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, DragSession{}, c.Session())
	assert.Equal(t, []string{"a", "c"}, l.OrderedIDs())
	assert.False(t, c.Remove("b"))
}

func TestRemoveOtherEntryKeepsSession(t *testing.T) {
	l, c := newFixture(t, "a", "b", "c")
	require.NoError(t, c.Begin("a"))

	assert.True(t, c.Remove("c"))
	assert.Equal(t, DragSession{Active: true, SourceID: "a"}, c.Session())

	require.NoError(t, c.MoveOver("b"))
	assert.Equal(t, []string{"b", "a"}, l.OrderedIDs())
}

func TestClearEndsSession(t *testing.T) {
	l, c := newFixture(t, "a", "b")
	require.NoError(t, c.Begin("a"))

	removed := c.Clear()
	require.Len(t, removed, 2)
	assert.Equal(t, "a", removed[0].ID)
	assert.Zero(t, l.Len())
	assert.Equal(t, Idle, c.State())
}

func TestTouchChannel(t *testing.T) {
	l, c := newFixture(t, "a", "b", "c", "d")

	started, err := c.TouchStart(Point{X: 10, Y: 99})
	require.NoError(t, err)
	assert.False(t, started, "above the first row")
	assert.Equal(t, Idle, c.State())

	// row b spans y in [120, 140)
	started, err = c.TouchStart(Point{X: 10, Y: 125})
	require.NoError(t, err)
	require.True(t, started)
	assert.Equal(t, "b", c.Session().SourceID)

	// off the rows: ignored, session stays open
	require.NoError(t, c.TouchMove(Point{X: 10, Y: 500}))
	require.NoError(t, c.TouchMove(Point{X: 400, Y: 165}))
	assert.Equal(t, []string{"a", "b", "c", "d"}, l.OrderedIDs())
	assert.Equal(t, Dragging, c.State())

	// over d (y in [160, 180))
	require.NoError(t, c.TouchMove(Point{X: 10, Y: 165}))
	assert.Equal(t, []string{"a", "c", "d", "b"}, l.OrderedIDs())

	// over a (y in [100, 120))
	require.NoError(t, c.TouchMove(Point{X: 10, Y: 100}))
	assert.Equal(t, []string{"b", "a", "c", "d"}, l.OrderedIDs())

	c.End()
	assert.Equal(t, Idle, c.State())
}

func TestPointerAndTouchAgree(t *testing.T) {
	lp, pointer := newFixture(t, "a", "b", "c", "d", "e")
	lt, touch := newFixture(t, "a", "b", "c", "d", "e")

	steps := []string{"d", "a", "e", "c", "b"}
	require.NoError(t, pointer.Begin("c"))
	_, err := touch.TouchStart(Point{X: 1, Y: 141})
	require.NoError(t, err)

	for _, target := range steps {
		require.NoError(t, pointer.MoveOver(target))
		top, ok := RowLayout{Rows: lt, Origin: Point{Y: 100}, RowHeight: 20}.Top(target)
		require.True(t, ok)
		require.NoError(t, touch.TouchMove(Point{X: 1, Y: top + 5}))
		assert.Equal(t, lp.OrderedIDs(), lt.OrderedIDs(), "after moving over %s", target)
	}
}

func TestRowLayout(t *testing.T) {
	l := ordering.NewList()
	for _, id := range []string{"a", "b"} {
		require.NoError(t, l.Append(models.ImageEntry{ID: id}))
	}
	layout := RowLayout{Rows: l, RowHeight: 0}

	top, ok := layout.Top("b")
	require.True(t, ok)
	assert.Equal(t, 1.0, top)

	_, ok = layout.Top("z")
	assert.False(t, ok)

	id, ok := layout.HitTest(Point{X: 1e6, Y: 0.5})
	require.True(t, ok)
	assert.Equal(t, "a", id)

	_, ok = layout.HitTest(Point{Y: 2})
	assert.False(t, ok)
}
