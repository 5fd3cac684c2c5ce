package viewport

import (
	"math"

	"github.com/mmcdole/vista/internal/event"
)

// DefaultContentWidth is assumed for buffer sizing before the first measurement
const DefaultContentWidth = 1000

// GridConfig configures a Grid
type GridConfig struct {
	Padding        Padding
	BufferRows     float64 // rows kept loaded above and below the screen
	Columns        int
	AspectRatio    float64 // unit width / unit height
	MinUpdateDelta int     // rows; smaller window changes are not emitted
}

// Layout is everything a renderer needs to place the held data window
type Layout struct {
	Actual
	Columns    int
	UnitWidth  float64
	UnitHeight float64
	// Spacer is the width left empty before the first held item when the
	// window does not start on a row boundary.
	Spacer float64
}

// Grid is a viewport over items laid out in fixed-aspect cells, Columns per row
type Grid struct {
	core
	cfg GridConfig

	data        Request
	dataTotal   int
	dataKnown   bool
	spacer      float64
	lastReq     Request
	lastReqCols int
	lastReqSet  bool

	updates event.Emitter[Request]
}

// NewGrid creates a grid viewport. scroller may be nil when programmatic
// scrolling is not needed.
func NewGrid(cfg GridConfig, scroller Scroller) *Grid {
	if cfg.Columns <= 0 {
		cfg.Columns = 1
	}
	if cfg.AspectRatio <= 0 {
		cfg.AspectRatio = 1
	}
	return &Grid{core: newCore(cfg.Padding, scroller), cfg: cfg}
}

// Updates publishes item windows the grid wants loaded
func (g *Grid) Updates() *event.Emitter[Request] {
	return &g.updates
}

// Columns returns the current column count
func (g *Grid) Columns() int {
	return g.cfg.Columns
}

func (g *Grid) units(contentWidth float64, columns int) (width, height float64) {
	width = contentWidth / float64(columns)
	return width, width / g.cfg.AspectRatio
}

func (g *Grid) buffer(contentWidth float64) float64 {
	if contentWidth <= 0 {
		contentWidth = DefaultContentWidth
	}
	return g.cfg.BufferRows * contentWidth / float64(g.cfg.Columns) / g.cfg.AspectRatio
}

// Resize applies a measurement of the scroll container
func (g *Grid) Resize(clientWidth, clientHeight float64) {
	old := g.measure(clientWidth, clientHeight, g.buffer)
	g.relayoutActual()
	g.reconcile(old, g.cfg.Columns)
	g.settle()
}

// Scroll applies a scroll position sample
func (g *Grid) Scroll(scrollTop float64) {
	old, ok := g.scroll(scrollTop, g.buffer(g.propose.ContentWidth))
	if ok {
		g.reconcile(old, g.cfg.Columns)
	}
	g.settle()
}

// SetColumns changes the column count, preserving the visual anchor
func (g *Grid) SetColumns(columns int) {
	if columns <= 0 || columns == g.cfg.Columns {
		return
	}
	oldColumns := g.cfg.Columns
	g.cfg.Columns = columns
	old := g.propose
	g.phase = Resizing
	g.relayoutActual()
	g.reconcile(old, oldColumns)
	g.settle()
}

// SetData tells the grid which window of items the caller currently holds
func (g *Grid) SetData(total, offset, limit int) {
	changed := !g.dataKnown || total != g.dataTotal
	g.data = Request{Offset: offset, Limit: limit}
	g.dataTotal, g.dataKnown = total, true
	g.relayoutActual()
	if changed {
		g.updateViewState(g.cfg.Columns)
	}
}

// ClearData marks the content as unknown. A grid that had a known total
// treats this as a content reset.
func (g *Grid) ClearData() {
	g.dataKnown = false
	g.dataTotal = 0
	g.data = Request{}
	g.relayoutActual()
	g.updateViewState(g.cfg.Columns)
}

// NavigateTo scrolls so the row holding itemOffset is at the top. It is a
// one-shot request; it returns true when a scroll was issued.
func (g *Grid) NavigateTo(itemOffset int) bool {
	if !g.propose.Measured || g.propose.ContentWidth <= 0 {
		return false
	}
	_, unitHeight := g.units(g.propose.ContentWidth, g.cfg.Columns)
	row := itemOffset / g.cfg.Columns
	return g.navigate(float64(row) * unitHeight)
}

// Layout returns the current top-down placement of the held window
func (g *Grid) Layout() Layout {
	w, h := g.units(g.propose.ContentWidth, g.cfg.Columns)
	return Layout{Actual: g.actual, Columns: g.cfg.Columns, UnitWidth: w, UnitHeight: h, Spacer: g.spacer}
}

// relayoutActual recomputes the top-down geometry from the held data window
func (g *Grid) relayoutActual() {
	if !g.propose.Measured || g.propose.ContentWidth <= 0 || !g.dataKnown {
		g.spacer = 0
		if g.actual != (Actual{}) {
			old, reset := g.setActual(Actual{}, g.buffer(g.propose.ContentWidth))
			if reset {
				g.lastReqSet = false
				g.reconcile(old, g.cfg.Columns)
			}
		}
		return
	}

	cols := g.cfg.Columns
	unitWidth, unitHeight := g.units(g.propose.ContentWidth, cols)
	lead := g.data.Offset % cols
	g.spacer = float64(lead) * unitWidth

	g.setActual(Actual{
		TotalHeight: math.Ceil(float64(g.dataTotal)/float64(cols)) * unitHeight,
		TotalKnown:  true,
		Top:         math.Floor(float64(g.data.Offset-lead)/float64(cols)) * unitHeight,
		Height:      math.Ceil(float64(g.data.Limit+lead)/float64(cols)) * unitHeight,
	}, g.buffer(g.propose.ContentWidth))
}

// reconcile reacts to a change of propose or column count: anchor
// preservation first, then the data window request, then the view state.
func (g *Grid) reconcile(old Propose, oldColumns int) {
	p := g.propose
	if !p.Measured || p.ContentWidth <= 0 {
		return
	}
	cols := g.cfg.Columns

	if old.Measured && (p.ContentWidth != old.ContentWidth || cols != oldColumns) {
		_, oldUnitHeight := g.units(old.ContentWidth, oldColumns)
		oldRow := math.Round((old.ScrollTop - g.padding.Top) / oldUnitHeight)
		oldItemOffset := int(oldRow) * oldColumns
		rowOffset := oldRow*oldUnitHeight - (old.ScrollTop - g.padding.Top)

		_, unitHeight := g.units(p.ContentWidth, cols)
		row := math.Floor(float64(oldItemOffset) / float64(cols))
		expected := clamp(0, unitHeight*row-rowOffset+g.padding.Top, p.ScrollHeight)
		if expected != p.ScrollTop {
			g.scroller.ScrollTo(expected)
			return
		}
	}

	if !g.lastReqSet || g.lastReqCols != cols || p.OffsetTop != old.OffsetTop ||
		p.OffsetHeight != old.OffsetHeight || p.ContentWidth != old.ContentWidth {
		_, unitHeight := g.units(p.ContentWidth, cols)
		offset := int(math.Floor(p.OffsetTop/unitHeight)) * cols
		limit := int(math.Ceil((p.OffsetTop+p.OffsetHeight)/unitHeight))*cols - offset

		minDelta := g.cfg.MinUpdateDelta * cols
		if !g.lastReqSet || g.lastReqCols != cols ||
			abs(g.lastReq.Offset-offset) >= minDelta || abs(g.lastReq.Limit-limit) >= minDelta {
			g.lastReq = Request{Offset: offset, Limit: limit}
			g.lastReqCols = cols
			g.lastReqSet = true
			g.updates.Emit(g.lastReq)
		}
	}

	if p.ScrollTop != old.ScrollTop || p.ScrollHeight != old.ScrollHeight || cols != oldColumns {
		g.updateViewState(cols)
	}
}

func (g *Grid) updateViewState(cols int) {
	if !g.dataKnown {
		g.setViewState(0, 0, 0, false)
		return
	}
	if !g.propose.Measured || g.propose.ContentWidth <= 0 {
		return
	}
	_, unitHeight := g.units(g.propose.ContentWidth, cols)
	first, last := g.visibleRows(unitHeight)
	itemOffset := min(max(first*cols, 0), g.dataTotal)
	lastOffset := min(max(last*cols, itemOffset), g.dataTotal)
	g.setViewState(itemOffset, lastOffset-itemOffset, g.dataTotal, true)
}
