package viewport

import (
	"math"

	"github.com/mmcdole/vista/internal/event"
)

// RowConfig configures a Row viewport
type RowConfig struct {
	Padding        Padding
	BufferRows     float64
	RowHeight      float64
	MinUpdateDelta int
}

// Row is a viewport over a single column of fixed-height rows
type Row struct {
	core
	cfg RowConfig

	data       Request
	dataTotal  int
	dataKnown  bool
	lastReq    Request
	lastReqSet bool

	updates event.Emitter[Request]
}

// NewRow creates a row viewport. scroller may be nil.
func NewRow(cfg RowConfig, scroller Scroller) *Row {
	if cfg.RowHeight <= 0 {
		cfg.RowHeight = 1
	}
	return &Row{core: newCore(cfg.Padding, scroller), cfg: cfg}
}

// Updates publishes item windows the viewport wants loaded
func (r *Row) Updates() *event.Emitter[Request] {
	return &r.updates
}

func (r *Row) buffer(float64) float64 {
	return r.cfg.BufferRows * r.cfg.RowHeight
}

// Resize applies a measurement of the scroll container
func (r *Row) Resize(clientWidth, clientHeight float64) {
	old := r.measure(clientWidth, clientHeight, r.buffer)
	r.relayoutActual()
	r.reconcile(old)
	r.settle()
}

// Scroll applies a scroll position sample
func (r *Row) Scroll(scrollTop float64) {
	old, ok := r.scroll(scrollTop, r.buffer(0))
	if ok {
		r.reconcile(old)
	}
	r.settle()
}

// SetData tells the viewport which window of rows the caller holds
func (r *Row) SetData(total, offset, limit int) {
	changed := !r.dataKnown || total != r.dataTotal
	r.data = Request{Offset: offset, Limit: limit}
	r.dataTotal, r.dataKnown = total, true
	r.relayoutActual()
	if changed {
		r.updateViewState()
	}
}

// ClearData marks the content as unknown, resetting the scroll position when
// a total had been known.
func (r *Row) ClearData() {
	r.dataKnown = false
	r.dataTotal = 0
	r.data = Request{}
	r.relayoutActual()
	r.updateViewState()
}

// NavigateTo scrolls row itemOffset to the top edge
func (r *Row) NavigateTo(itemOffset int) bool {
	return r.navigate(float64(itemOffset) * r.cfg.RowHeight)
}

// Layout returns the placement of the held window
func (r *Row) Layout() Layout {
	return Layout{
		Actual:     r.actual,
		Columns:    1,
		UnitWidth:  r.propose.ContentWidth,
		UnitHeight: r.cfg.RowHeight,
	}
}

func (r *Row) relayoutActual() {
	a := Actual{}
	if r.dataKnown {
		h := r.cfg.RowHeight
		a = Actual{
			TotalHeight: float64(r.dataTotal) * h,
			TotalKnown:  true,
			Top:         float64(r.data.Offset) * h,
			Height:      float64(r.data.Limit) * h,
		}
	}
	old, reset := r.setActual(a, r.buffer(0))
	if reset {
		r.lastReqSet = false
		r.reconcile(old)
	}
}

func (r *Row) reconcile(old Propose) {
	p := r.propose
	if !p.Measured {
		return
	}
	h := r.cfg.RowHeight

	if !r.lastReqSet || p.OffsetTop != old.OffsetTop || p.OffsetHeight != old.OffsetHeight {
		offset := int(math.Floor(p.OffsetTop / h))
		limit := int(math.Ceil((p.OffsetTop+p.OffsetHeight)/h)) - offset

		minDelta := r.cfg.MinUpdateDelta
		if !r.lastReqSet || abs(r.lastReq.Offset-offset) > minDelta || abs(r.lastReq.Limit-limit) > minDelta {
			r.lastReq = Request{Offset: offset, Limit: limit}
			r.lastReqSet = true
			r.updates.Emit(r.lastReq)
		}
	}

	if p.ScrollTop != old.ScrollTop || p.ScrollHeight != old.ScrollHeight {
		r.updateViewState()
	}
}

func (r *Row) updateViewState() {
	if !r.dataKnown {
		r.setViewState(0, 0, 0, false)
		return
	}
	if !r.propose.Measured {
		return
	}
	first, last := r.visibleRows(r.cfg.RowHeight)
	first = min(max(first, 0), r.dataTotal)
	last = min(max(last, first), r.dataTotal)
	r.setViewState(first, last-first, r.dataTotal, true)
}
