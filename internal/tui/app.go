package tui

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/vista/internal/adapter/source/memory"
	"github.com/mmcdole/vista/internal/domain"
	"github.com/mmcdole/vista/internal/query"
	"github.com/mmcdole/vista/internal/search"
	"github.com/mmcdole/vista/internal/tui/styles"
	"github.com/mmcdole/vista/internal/viewport"
)

// Mode is what keyboard input currently drives
type Mode int

const (
	ModeBrowsing Mode = iota
	ModeFilter
	ModeFind
)

// Chrome heights in lines
const (
	HeaderHeight = 1
	FooterHeight = 1

	MinColumns = 1
	MaxColumns = 8
)

// Endpoint is the catalogue endpoint the model browses
type Endpoint = query.Endpoint[*domain.MediaItem, domain.Filter]

var sortOrders = []string{"", memory.SortTitle, memory.SortYear, memory.SortRating}

// scroller is the model's scroll position. The grid requests programmatic
// scrolls through ScrollTo; the model applies them on its next sync.
type scroller struct {
	top     float64
	target  float64
	pending bool
}

func (s *scroller) ScrollTo(top float64) {
	s.target, s.pending = top, true
}

// lastRequest remembers the grid's latest window so a reset that did not
// scroll can still re-request it
type lastRequest struct {
	req viewport.Request
	set bool
}

// Model is the Bubble Tea model for the catalogue grid
type Model struct {
	Mode  Mode
	Ready bool

	Endpoint *Endpoint
	Pages    *query.PaginationView[*domain.MediaItem]
	Grid     *viewport.Grid
	Keys     KeyMap
	Input    textinput.Model

	Width  int
	Height int

	StatusMsg   string
	StatusIsErr bool

	cursor  int
	slice   query.Slice[*domain.MediaItem]
	sortIdx int

	scroll    *scroller
	last      *lastRequest
	bridge    *Bridge
	mutations Mutations
	logger    *slog.Logger
	unsubs    []func()
	spinner   int
}

// Mutations applies edits to the catalogue backend before they are applied
// to the cached pages. Backends without write support leave it nil and edits
// stay local to the cache.
type Mutations interface {
	Remove(ctx context.Context, id string) error
	SetFavorite(ctx context.Context, id string, favorite bool) error
}

// Config wires a Model
type Config struct {
	Grid      viewport.GridConfig
	Pages     query.PaginationOptions
	Bridge    *Bridge // should also be the endpoint's error handler
	Mutations Mutations
	Logger    *slog.Logger
}

// NewModel wires a grid viewport and a pagination view to ep
func NewModel(ep *Endpoint, cfg Config) Model {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pages := cfg.Pages
	if pages.Logger == nil {
		pages.Logger = logger
	}
	bridge := cfg.Bridge
	if bridge == nil {
		bridge = NewBridge()
	}

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	m := Model{
		Mode:      ModeBrowsing,
		Endpoint:  ep,
		Pages:     query.NewPaginationView[*domain.MediaItem](ep, pages),
		Keys:      DefaultKeyMap(),
		Input:     ti,
		slice:     query.Slice[*domain.MediaItem]{Result: []*domain.MediaItem{}},
		scroll:    &scroller{},
		last:      &lastRequest{},
		bridge:    bridge,
		mutations: cfg.Mutations,
		logger:    logger,
	}
	m.Grid = viewport.NewGrid(cfg.Grid, m.scroll)

	pv, last := m.Pages, m.last
	m.unsubs = []func(){
		m.Grid.Updates().Subscribe(func(r viewport.Request) {
			last.req, last.set = r, true
			pv.DataUpdate(r.Offset, r.Limit)
		}),
		m.Pages.Updated().Subscribe(func(query.Slice[*domain.MediaItem]) {
			bridge.NotifySlice()
		}),
	}
	return m
}

// Close detaches the model from the engine
func (m Model) Close() {
	for _, unsub := range m.unsubs {
		unsub()
	}
	m.Pages.Close()
}

// Cursor returns the selected item index
func (m Model) Cursor() int {
	return m.cursor
}

// Slice returns the committed window the model renders
func (m Model) Slice() query.Slice[*domain.MediaItem] {
	return m.slice
}

// Init starts listening for engine events
func (m Model) Init() tea.Cmd {
	return m.bridge.Wait()
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.Grid.Resize(float64(m.Width), float64(m.bodyHeight()))
		m.sync()
		return m, nil

	case sliceUpdatedMsg:
		m.applySlice(m.Pages.Data())
		return m, m.bridge.Wait()

	case fetchErrorMsg:
		m.StatusMsg = msg.Title + ": " + msg.Message
		m.StatusIsErr = true
		return m, m.bridge.Wait()

	case tea.KeyMsg:
		switch m.Mode {
		case ModeFilter, ModeFind:
			return m.handleInputKey(msg)
		default:
			return m.handleKeyMsg(msg)
		}
	}
	return m, nil
}

func (m *Model) applySlice(s query.Slice[*domain.MediaItem]) {
	m.slice = s
	m.spinner++
	if !s.Metrics.TotalKnown {
		m.Grid.ClearData()
		if m.Grid.Phase() != viewport.ContentReset && m.last.set {
			m.Pages.DataUpdate(m.last.req.Offset, m.last.req.Limit)
		}
		m.cursor = 0
		m.sync()
		return
	}

	m.Grid.SetData(s.Metrics.Total, s.Metrics.Offset, s.Metrics.Limit)
	if m.cursor >= s.Metrics.Total {
		m.cursor = max(0, s.Metrics.Total-1)
	}
	m.sync()
}

// sync feeds programmatic scrolls back to the grid until it settles
func (m *Model) sync() {
	for range 4 {
		if !m.scroll.pending {
			return
		}
		m.scroll.pending = false
		m.scroll.top = m.scroll.target
		m.Grid.Scroll(m.scroll.top)
	}
}

func (m Model) bodyHeight() int {
	return max(0, m.Height-HeaderHeight-FooterHeight)
}

func (m Model) total() (int, bool) {
	return m.slice.Metrics.Total, m.slice.Metrics.TotalKnown
}

// itemAt returns the item at index from the committed slice
func (m Model) itemAt(index int) *domain.MediaItem {
	i := index - m.slice.Metrics.Offset
	if i < 0 || i >= len(m.slice.Result) {
		return nil
	}
	return m.slice.Result[i]
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cols := m.Grid.Columns()
	rowsPerPage := max(1, int(float64(m.bodyHeight())/m.Grid.Layout().UnitHeight))

	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.Keys.Up):
		m.moveCursor(-cols)
	case key.Matches(msg, m.Keys.Down):
		m.moveCursor(cols)
	case key.Matches(msg, m.Keys.Left):
		m.moveCursor(-1)
	case key.Matches(msg, m.Keys.Right):
		m.moveCursor(1)
	case key.Matches(msg, m.Keys.PageUp):
		m.moveCursor(-cols * rowsPerPage)
	case key.Matches(msg, m.Keys.PageDown):
		m.moveCursor(cols * rowsPerPage)
	case key.Matches(msg, m.Keys.Home):
		m.moveCursor(-m.cursor)
	case key.Matches(msg, m.Keys.End):
		if total, ok := m.total(); ok {
			m.moveCursor(total - 1 - m.cursor)
		}
	case key.Matches(msg, m.Keys.MoreColumns):
		m.setColumns(cols + 1)
	case key.Matches(msg, m.Keys.FewerColumns):
		m.setColumns(cols - 1)
	case key.Matches(msg, m.Keys.Filter):
		m.beginInput(ModeFilter, "/ ", m.Endpoint.Filter().Query)
		return m, textinput.Blink
	case key.Matches(msg, m.Keys.Find):
		m.beginInput(ModeFind, "find: ", "")
		return m, textinput.Blink
	case key.Matches(msg, m.Keys.Sort):
		m.cycleSort()
	case key.Matches(msg, m.Keys.Refresh):
		m.setStatus("refreshing", false)
		m.Endpoint.Refresh()
	case key.Matches(msg, m.Keys.Favorite):
		m.toggleFavorite()
	case key.Matches(msg, m.Keys.Delete):
		m.removeSelected()
	}
	return m, nil
}

func (m *Model) beginInput(mode Mode, prompt, value string) {
	m.Mode = mode
	m.Input.Prompt = prompt
	m.Input.SetValue(value)
	m.Input.CursorEnd()
	m.Input.Focus()
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Escape):
		m.Mode = ModeBrowsing
		m.Input.Blur()
		return m, nil
	case key.Matches(msg, m.Keys.Enter):
		mode, value := m.Mode, m.Input.Value()
		m.Mode = ModeBrowsing
		m.Input.Blur()
		if mode == ModeFilter {
			m.applyFilter(value)
		} else {
			m.find(value)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

// moveCursor moves the selection by delta items and scrolls it into view
func (m *Model) moveCursor(delta int) {
	total, ok := m.total()
	if !ok || total == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), total-1)
	m.ensureVisible()
}

func (m *Model) ensureVisible() {
	layout := m.Grid.Layout()
	if layout.UnitHeight <= 0 {
		return
	}
	p := m.Grid.Propose()
	rowTop := m.Grid.Padding().Top + float64(m.cursor/layout.Columns)*layout.UnitHeight

	top := m.scroll.top
	switch {
	case rowTop < top:
		top = rowTop
	case rowTop+layout.UnitHeight > top+p.ContentHeight:
		top = rowTop + layout.UnitHeight - p.ContentHeight
	}
	top = math.Max(0, math.Min(top, math.Max(0, p.ScrollHeight)))
	if top != m.scroll.top {
		m.scroll.top = top
		m.Grid.Scroll(top)
		m.sync()
	}
}

func (m *Model) setColumns(n int) {
	n = min(max(n, MinColumns), MaxColumns)
	if n == m.Grid.Columns() {
		return
	}
	m.Grid.SetColumns(n)
	m.sync()
	m.ensureVisible()
	m.setStatus(fmt.Sprintf("%d columns", n), false)
}

func (m *Model) applyFilter(q string) {
	f := m.Endpoint.Filter()
	if f.Query == q {
		return
	}
	f.Query = q
	m.Endpoint.SetFilter(f)
	if q == "" {
		m.setStatus("filter cleared", false)
	} else {
		m.setStatus("filter: "+q, false)
	}
}

func (m *Model) cycleSort() {
	m.sortIdx = (m.sortIdx + 1) % len(sortOrders)
	f := m.Endpoint.Filter()
	f.Sort = sortOrders[m.sortIdx]
	m.Endpoint.SetFilter(f)
	m.setStatus("sort: "+sortLabel(f.Sort), false)
}

func sortLabel(s string) string {
	if s == "" {
		return "default"
	}
	return s
}

// find searches the loaded pages, nearest to the visible window first
func (m *Model) find(q string) {
	if q == "" {
		return
	}
	st := m.Grid.State()
	idx, ok := m.Endpoint.Find(search.TitleMatcher(q), &query.Range{Offset: st.ItemOffset, Limit: st.ItemLimit})
	if !ok {
		m.setStatus(fmt.Sprintf("no loaded item matches %q", q), true)
		return
	}
	m.cursor = idx
	m.Grid.NavigateTo(idx)
	m.sync()
	m.setStatus(fmt.Sprintf("found %q at %d", q, idx+1), false)
}

func (m *Model) toggleFavorite() {
	item := m.itemAt(m.cursor)
	if item == nil {
		return
	}
	updated := *item
	updated.Favorite = !updated.Favorite
	if m.mutations != nil {
		if err := m.mutations.SetFavorite(context.Background(), item.ID, updated.Favorite); err != nil {
			m.setStatus("favorite failed: "+err.Error(), true)
			return
		}
	}
	if !m.Endpoint.Modify(m.cursor, &updated) {
		m.setStatus("item is not loaded", true)
	}
}

func (m *Model) removeSelected() {
	item := m.itemAt(m.cursor)
	if item == nil {
		m.setStatus("item is not loaded", true)
		return
	}
	if m.mutations != nil {
		if err := m.mutations.Remove(context.Background(), item.ID); err != nil {
			m.setStatus("remove failed: "+err.Error(), true)
			return
		}
	}
	if !m.Endpoint.Remove(m.cursor) {
		m.setStatus("item is not loaded", true)
		return
	}
	m.setStatus("removed "+item.Title, false)
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.StatusMsg = msg
	m.StatusIsErr = isErr
	if isErr {
		m.logger.Warn("status", "message", msg)
	}
}
