// Package viewport maps a continuous scroll position onto discrete item
// windows for row lists and fixed-aspect grids.
//
// Geometry is kept in two halves. Propose is derived bottom-up from scroll and
// resize samples; Actual is derived top-down from the data window the caller
// currently holds. The two only meet through padding and buffer.
//
// Viewports are not safe for concurrent use; they belong to the UI loop.
package viewport

import "math"

// Padding is the space between the scroll container and its content
type Padding struct {
	Top    float64 `mapstructure:"top"`
	Bottom float64 `mapstructure:"bottom"`
	Left   float64 `mapstructure:"left"`
	Right  float64 `mapstructure:"right"`
}

// UniformPadding returns the same padding on every side
func UniformPadding(v float64) Padding {
	return Padding{Top: v, Bottom: v, Left: v, Right: v}
}

// Offset is the result of ComputeOffset
type Offset struct {
	OffsetTop    float64
	OffsetHeight float64
	ScrollTop    float64
	ScrollHeight float64
}

// ComputeOffset converts a scroll sample into the buffered content window.
// When the total height is not known yet it is assumed to be exactly one
// buffered screen. ScrollHeight is the scrollbar denominator.
func ComputeOffset(scrollTop, clientHeight, totalHeight float64, totalKnown bool, buffer float64, padding Padding) Offset {
	usable := clientHeight + 2*buffer
	total := usable
	if totalKnown {
		total = totalHeight
	}
	sumTop := padding.Top + buffer
	sumBottom := padding.Bottom + buffer

	offsetTop := math.Max(0, scrollTop-sumTop)
	scrollBottom := total - scrollTop - usable + sumTop + sumBottom
	offsetBottom := math.Max(0, scrollBottom-sumBottom)

	return Offset{
		OffsetTop:    offsetTop,
		OffsetHeight: total - offsetTop - offsetBottom,
		ScrollTop:    scrollTop,
		ScrollHeight: total - clientHeight + padding.Top,
	}
}

// Propose is the bottom-up half of the geometry
type Propose struct {
	Offset
	ContentWidth  float64
	ContentHeight float64
	Measured      bool
}

// Actual is the top-down half: where the held data window sits in the
// scrollable content.
type Actual struct {
	TotalHeight float64
	TotalKnown  bool
	Top         float64
	Height      float64
}

// Bottom returns the space below the data window
func (a Actual) Bottom() float64 {
	return math.Max(0, a.TotalHeight-a.Top-a.Height)
}

// State is the externally observable position of a viewport
type State struct {
	ScrollTop    float64
	ScrollHeight float64
	ItemOffset   int
	ItemLimit    int
	ItemTotal    int
	TotalKnown   bool
}

// Request is an item window the viewport wants loaded
type Request struct {
	Offset int
	Limit  int
}

// Scroller performs programmatic scrolls. The scroll source is expected to
// report the resulting position back through Scroll.
type Scroller interface {
	ScrollTo(top float64)
}

// ScrollerFunc adapts a function to Scroller
type ScrollerFunc func(top float64)

// ScrollTo calls f(top)
func (f ScrollerFunc) ScrollTo(top float64) { f(top) }

func clamp(lo, v, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
