package viewport

import (
	"math"

	"github.com/mmcdole/vista/internal/event"
)

// Phase is the lifecycle state of a viewport
type Phase int

const (
	Uninitialized Phase = iota
	Measured
	Scrolling
	Resizing
	ContentReset
)

func (p Phase) String() string {
	switch p {
	case Measured:
		return "measured"
	case Scrolling:
		return "scrolling"
	case Resizing:
		return "resizing"
	case ContentReset:
		return "content_reset"
	default:
		return "uninitialized"
	}
}

// core holds the propose/actual machinery shared by Grid and Row
type core struct {
	padding      Padding
	scroller     Scroller
	clientHeight float64
	phase        Phase

	propose Propose
	actual  Actual
	state   State

	stateChanges event.Emitter[State]
}

func newCore(padding Padding, scroller Scroller) core {
	if scroller == nil {
		scroller = ScrollerFunc(func(float64) {})
	}
	return core{padding: padding, scroller: scroller}
}

func (c *core) offset(scrollTop, buffer float64) Offset {
	return ComputeOffset(scrollTop, c.clientHeight, c.actual.TotalHeight, c.actual.TotalKnown, buffer, c.padding)
}

// measure applies a resize sample. The offset is only recomputed when the
// content height changed; the first measurement always counts as a change.
func (c *core) measure(clientWidth, clientHeight float64, buffer func(contentWidth float64) float64) Propose {
	old := c.propose
	c.phase = Resizing
	c.clientHeight = clientHeight

	width := math.Max(0, clientWidth-c.padding.Left-c.padding.Right)
	height := math.Max(0, clientHeight-c.padding.Top-c.padding.Bottom)

	next := c.propose
	if !old.Measured || height != old.ContentHeight {
		next.Offset = c.offset(old.ScrollTop, buffer(width))
	}
	next.ContentWidth, next.ContentHeight, next.Measured = width, height, true
	c.propose = next
	return old
}

// scroll applies a scroll sample. Samples are ignored until the content has a
// known height.
func (c *core) scroll(scrollTop, buffer float64) (Propose, bool) {
	if !c.propose.Measured || !c.actual.TotalKnown {
		c.propose.ScrollTop = scrollTop
		return c.propose, false
	}
	old := c.propose
	c.phase = Scrolling
	c.propose.Offset = c.offset(scrollTop, buffer)
	return old, true
}

// setActual installs a new top-down layout. Dropping from a known to an
// unknown total is a content reset: scroll is forced back to the top.
// A changed known total height only refreshes the scroll extent.
func (c *core) setActual(a Actual, buffer float64) (old Propose, reset bool) {
	prev := c.actual
	c.actual = a
	if !c.propose.Measured {
		return c.propose, false
	}
	if a.TotalKnown {
		if !prev.TotalKnown || a.TotalHeight != prev.TotalHeight {
			c.propose.Offset = c.offset(c.propose.ScrollTop, buffer)
		}
		return c.propose, false
	}
	if !prev.TotalKnown {
		return c.propose, false
	}
	old = c.propose
	c.phase = ContentReset
	c.propose.Offset = c.offset(0, buffer)
	c.scroller.ScrollTo(0)
	return old, true
}

func (c *core) settle() {
	if c.propose.Measured {
		c.phase = Measured
	}
}

// navigate scrolls so that contentTop lands at the top edge. It returns false
// when no scroll was needed or the viewport is not measured yet.
func (c *core) navigate(contentTop float64) bool {
	if !c.propose.Measured {
		return false
	}
	top := contentTop + c.padding.Top
	if top == c.propose.ScrollTop {
		return false
	}
	c.scroller.ScrollTo(top)
	return true
}

func (c *core) setViewState(itemOffset, itemLimit, total int, known bool) {
	next := State{
		ScrollTop:    c.propose.ScrollTop,
		ScrollHeight: c.propose.ScrollHeight,
		ItemOffset:   itemOffset,
		ItemLimit:    itemLimit,
		ItemTotal:    total,
		TotalKnown:   known,
	}
	if next == c.state {
		return
	}
	c.state = next
	c.stateChanges.Emit(next)
}

// visibleRows returns the first and last row under the viewport, each
// counted when more than half of it is visible.
func (c *core) visibleRows(unitHeight float64) (first, last int) {
	p := c.propose
	first = int(math.Round((p.ScrollTop - c.padding.Top) / unitHeight))
	last = int(math.Round((p.ScrollTop + p.ContentHeight + c.padding.Bottom) / unitHeight))
	return first, last
}

// === Accessors shared by both variants ===

// Propose returns the bottom-up geometry
func (c *core) Propose() Propose { return c.propose }

// Actual returns the top-down geometry
func (c *core) Actual() Actual { return c.actual }

// State returns the observable position
func (c *core) State() State { return c.state }

// Padding returns the container padding
func (c *core) Padding() Padding { return c.padding }

// Phase returns the lifecycle state
func (c *core) Phase() Phase { return c.phase }

// StateChanges publishes every change of State
func (c *core) StateChanges() *event.Emitter[State] { return &c.stateChanges }
