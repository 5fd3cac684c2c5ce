package viewport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestRow() (*Row, *recordScroller, *[]Request) {
	s := &recordScroller{}
	r := NewRow(RowConfig{RowHeight: 20, BufferRows: 5, MinUpdateDelta: 2}, s)
	reqs := collect(r.Updates().Subscribe)
	return r, s, reqs
}

func TestRowScrollEmitsStrictlyPastDelta(t *testing.T) {
	r, _, reqs := newTestRow()
	r.Resize(80, 200)
	r.SetData(1000, 0, 15)

	assert.Equal(t, State{ScrollHeight: 19800, ItemLimit: 10, ItemTotal: 1000, TotalKnown: true}, r.State())

	r.Scroll(400)
	r.Scroll(440)
	r.Scroll(460)

	assert.Equal(t, []Request{
		{Offset: 0, Limit: 15},
		{Offset: 15, Limit: 20},
		{Offset: 18, Limit: 20},
	}, *reqs)
}

func TestRowViewState(t *testing.T) {
	r, _, _ := newTestRow()
	r.Resize(80, 200)
	r.SetData(1000, 0, 15)
	r.Scroll(400)

	st := r.State()
	assert.Equal(t, 20, st.ItemOffset)
	assert.Equal(t, 10, st.ItemLimit)
}

func TestRowViewStateCappedAtTotal(t *testing.T) {
	r, _, _ := newTestRow()
	r.Resize(80, 200)
	r.SetData(25, 0, 25)
	r.Scroll(400)

	st := r.State()
	assert.Equal(t, 20, st.ItemOffset)
	assert.Equal(t, 5, st.ItemLimit)
	assert.Equal(t, 25, st.ItemTotal)
}

func TestRowLayout(t *testing.T) {
	r, _, _ := newTestRow()
	r.Resize(80, 200)
	r.SetData(1000, 40, 30)

	layout := r.Layout()
	assert.Equal(t, 1, layout.Columns)
	assert.Equal(t, Actual{TotalHeight: 20000, TotalKnown: true, Top: 800, Height: 600}, layout.Actual)
}

func TestRowContentReset(t *testing.T) {
	r, s, reqs := newTestRow()
	r.Resize(80, 200)
	r.SetData(1000, 0, 15)
	r.Scroll(400)

	r.ClearData()

	assert.Equal(t, ContentReset, r.Phase())
	assert.Equal(t, []float64{0}, s.calls)
	assert.Equal(t, Request{Offset: 0, Limit: 15}, (*reqs)[len(*reqs)-1])
	assert.False(t, r.State().TotalKnown)
}

func TestRowNavigateTo(t *testing.T) {
	r, s, _ := newTestRow()
	r.Resize(80, 200)
	r.SetData(1000, 0, 15)

	assert.True(t, r.NavigateTo(50))
	assert.Equal(t, []float64{1000}, s.calls)
}
