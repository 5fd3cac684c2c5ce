package viewport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGrid(minDelta int) (*Grid, *recordScroller, *[]Request) {
	s := &recordScroller{}
	g := NewGrid(GridConfig{Columns: 3, AspectRatio: 1, MinUpdateDelta: minDelta}, s)
	reqs := collect(g.Updates().Subscribe)
	return g, s, reqs
}

func TestGridFirstMeasurementRequestsOneScreen(t *testing.T) {
	g, _, reqs := newTestGrid(1)
	assert.Equal(t, Uninitialized, g.Phase())

	g.Resize(300, 500)

	assert.Equal(t, Measured, g.Phase())
	assert.Equal(t, []Request{{Offset: 0, Limit: 15}}, *reqs)
	layout := g.Layout()
	assert.Equal(t, 100.0, layout.UnitWidth)
	assert.Equal(t, 100.0, layout.UnitHeight)
}

func TestGridScrollEmitsWindows(t *testing.T) {
	g, _, reqs := newTestGrid(1)
	g.Resize(300, 500)
	g.SetData(100, 0, 15)

	assert.Equal(t, State{ScrollHeight: 2900, ItemLimit: 15, ItemTotal: 100, TotalKnown: true}, g.State())

	g.Scroll(250)
	g.Scroll(260)
	g.Scroll(320)

	assert.Equal(t, []Request{
		{Offset: 0, Limit: 15},
		{Offset: 6, Limit: 18},
		{Offset: 9, Limit: 18},
	}, *reqs)
	assert.Equal(t, 9, g.State().ItemOffset)
}

func TestGridUpdateGatedByRowDelta(t *testing.T) {
	g, _, reqs := newTestGrid(2)
	g.Resize(300, 500)
	g.SetData(100, 0, 15)

	g.Scroll(100)
	require.Len(t, *reqs, 1)

	g.Scroll(200)
	assert.Equal(t, []Request{{Offset: 0, Limit: 15}, {Offset: 6, Limit: 15}}, *reqs)
}

func TestGridScrollIgnoredUntilTotalKnown(t *testing.T) {
	g, _, reqs := newTestGrid(1)
	g.Resize(300, 500)

	g.Scroll(800)

	assert.Len(t, *reqs, 1)
	assert.Equal(t, 800.0, g.Propose().ScrollTop)
}

func TestGridViewState(t *testing.T) {
	g, _, _ := newTestGrid(1)
	states := collect(g.StateChanges().Subscribe)
	g.Resize(300, 500)
	g.SetData(100, 0, 15)
	g.Scroll(250)

	st := g.State()
	assert.Equal(t, 9, st.ItemOffset)
	assert.Equal(t, 15, st.ItemLimit)
	assert.Equal(t, 100, st.ItemTotal)
	assert.True(t, st.TotalKnown)
	assert.Len(t, *states, 2)
}

func TestGridColumnChangeKeepsAnchor(t *testing.T) {
	g, s, reqs := newTestGrid(1)
	g.Resize(300, 500)
	g.SetData(100, 27, 15)
	g.Scroll(1000)
	require.Equal(t, 30, g.State().ItemOffset)

	g.SetColumns(4)
	require.Equal(t, []float64{525}, s.calls)

	// the scroll source reports the programmatic scroll back
	g.Scroll(525)

	st := g.State()
	assert.LessOrEqual(t, st.ItemOffset, 30)
	assert.Greater(t, st.ItemOffset+4, 30)
	assert.Equal(t, Request{Offset: 28, Limit: 28}, (*reqs)[len(*reqs)-1])
	assert.Equal(t, 4, g.Layout().Columns)
	assert.Equal(t, 75.0, g.Layout().UnitHeight)
}

func TestGridSetColumnsNoop(t *testing.T) {
	g, s, reqs := newTestGrid(1)
	g.Resize(300, 500)

	g.SetColumns(3)
	g.SetColumns(0)

	assert.Empty(t, s.calls)
	assert.Len(t, *reqs, 1)
}

func TestGridLayoutSpacer(t *testing.T) {
	g, _, _ := newTestGrid(1)
	g.Resize(300, 500)
	g.SetData(100, 7, 10)

	layout := g.Layout()
	assert.Equal(t, 100.0, layout.Spacer)
	assert.Equal(t, Actual{TotalHeight: 3400, TotalKnown: true, Top: 200, Height: 400}, layout.Actual)
}

func TestGridContentReset(t *testing.T) {
	g, s, reqs := newTestGrid(1)
	g.Resize(300, 500)
	g.SetData(100, 27, 15)
	g.Scroll(1000)

	g.ClearData()

	assert.Equal(t, ContentReset, g.Phase())
	assert.Equal(t, []float64{0}, s.calls)
	assert.Equal(t, Request{Offset: 0, Limit: 15}, (*reqs)[len(*reqs)-1])
	assert.Equal(t, State{}, g.State())
	assert.False(t, g.Actual().TotalKnown)

	g.Scroll(0)
	assert.Equal(t, Measured, g.Phase())
}

func TestGridNavigateTo(t *testing.T) {
	g, s, _ := newTestGrid(1)
	assert.False(t, g.NavigateTo(31), "unmeasured grid ignores navigation")

	g.Resize(300, 500)
	g.SetData(100, 0, 15)

	assert.False(t, g.NavigateTo(2), "already at the target row")
	assert.True(t, g.NavigateTo(31))
	assert.Equal(t, []float64{1000}, s.calls)
}
