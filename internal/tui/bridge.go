package tui

import tea "github.com/charmbracelet/bubbletea"

// sliceUpdatedMsg signals that the pagination view committed or reset its slice
type sliceUpdatedMsg struct{}

// fetchErrorMsg carries an error reported by the query engine
type fetchErrorMsg struct {
	Title   string
	Message string
}

// Bridge moves engine events, which fire on timer and fetch goroutines, onto
// the Bubble Tea loop. Slice notifications coalesce: the model always reads
// the latest slice when it handles one.
type Bridge struct {
	slices chan struct{}
	errs   chan fetchErrorMsg
}

// NewBridge creates a bridge
func NewBridge() *Bridge {
	return &Bridge{
		slices: make(chan struct{}, 1),
		errs:   make(chan fetchErrorMsg, 8),
	}
}

// NotifySlice signals a new slice (non-blocking)
func (b *Bridge) NotifySlice() {
	select {
	case b.slices <- struct{}{}:
	default:
	}
}

// ReportError is a domain.ErrorHandler. Errors beyond the buffer are dropped.
func (b *Bridge) ReportError(title, message string) {
	select {
	case b.errs <- fetchErrorMsg{Title: title, Message: message}:
	default:
	}
}

// Wait returns a command that blocks until the next engine event
func (b *Bridge) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-b.slices:
			return sliceUpdatedMsg{}
		case e := <-b.errs:
			return e
		}
	}
}
