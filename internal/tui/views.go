package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/vista/internal/domain"
	"github.com/mmcdole/vista/internal/tui/styles"
)

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderGrid(),
		m.renderFooter(),
	)
}

// renderHeader shows the active filter and the visible item range
func (m Model) renderHeader() string {
	f := m.Endpoint.Filter()
	left := styles.TitleStyle.Render(" vista")
	if f.Query != "" {
		left += styles.DimStyle.Render("  filter ") + styles.AccentStyle.Render(f.Query)
	}
	left += styles.DimStyle.Render("  sort ") + styles.SubtitleStyle.Render(sortLabel(f.Sort))

	var right string
	st := m.Grid.State()
	switch {
	case !st.TotalKnown:
		right = styles.SpinnerFrames[m.spinner%len(styles.SpinnerFrames)] + " loading "
	case st.ItemTotal == 0:
		right = "no items "
	default:
		right = fmt.Sprintf("%d–%d of %d ", st.ItemOffset+1, st.ItemOffset+st.ItemLimit, st.ItemTotal)
	}
	right = styles.SubtitleStyle.Render(right)

	gap := max(0, m.Width-lipgloss.Width(left)-lipgloss.Width(right))
	return styles.HeaderStyle.Width(m.Width).Render(left + strings.Repeat(" ", gap) + right)
}

// renderGrid draws the rows under the current scroll position
func (m Model) renderGrid() string {
	height := m.bodyHeight()
	layout := m.Grid.Layout()
	if height == 0 || layout.UnitHeight <= 0 {
		return strings.Repeat("\n", max(0, height-1))
	}

	cellW := max(1, int(layout.UnitWidth))
	cellH := max(1, int(math.Round(layout.UnitHeight)))
	firstRow := int(math.Max(0, m.scroll.top-m.Grid.Padding().Top) / layout.UnitHeight)
	rows := int(math.Ceil(float64(height)/layout.UnitHeight)) + 1
	total, known := m.total()

	var lines []string
	for r := firstRow; r < firstRow+rows && len(lines) < height; r++ {
		cells := make([]string, 0, layout.Columns)
		for c := 0; c < layout.Columns; c++ {
			idx := r*layout.Columns + c
			if known && idx >= total {
				cells = append(cells, lipgloss.NewStyle().Width(cellW).Height(cellH).Render(""))
				continue
			}
			cells = append(cells, m.renderCell(idx, cellW, cellH))
		}
		lines = append(lines, strings.Split(lipgloss.JoinHorizontal(lipgloss.Top, cells...), "\n")...)
	}

	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// renderCell draws one grid cell of exactly width x height
func (m Model) renderCell(index, width, height int) string {
	item := m.itemAt(index)
	selected := index == m.cursor

	style := styles.GridCellStyle
	if selected {
		style = styles.GridCellSelectedStyle
	}
	framed := height >= 3 && width >= 6
	if !framed {
		style = lipgloss.NewStyle()
	}

	innerW, innerH := width, height
	if framed {
		innerW, innerH = width-2-style.GetHorizontalPadding(), height-2
	}

	var body []string
	if item == nil {
		body = []string{styles.PlaceholderStyle.Render(styles.Truncate("···", innerW))}
	} else {
		body = cellLines(item, innerW, selected)
	}
	if len(body) > innerH {
		body = body[:innerH]
	}

	return style.
		Width(width - style.GetHorizontalBorderSize()).
		Height(height - style.GetVerticalBorderSize()).
		MaxHeight(height).
		Render(strings.Join(body, "\n"))
}

func cellLines(item *domain.MediaItem, width int, selected bool) []string {
	title := item.Title
	if item.Favorite {
		title = styles.FavoriteChar + " " + title
	}
	titleStyle := styles.SubtitleStyle
	if selected {
		titleStyle = styles.TitleStyle
	}
	lines := []string{titleStyle.Render(styles.Truncate(title, width))}
	lines = append(lines, styles.DimStyle.Render(styles.Truncate(item.GetDescription(), width)))
	if item.Rating > 0 {
		lines = append(lines, styles.AccentStyle.Render(fmt.Sprintf("%.1f", item.Rating)))
	}
	return lines
}

// renderFooter shows the status message or the input line, plus key hints
func (m Model) renderFooter() string {
	if m.Mode != ModeBrowsing {
		return m.Input.View()
	}

	var left string
	if m.StatusMsg != "" {
		if m.StatusIsErr {
			left = styles.ErrorStyle.Render(m.StatusMsg)
		} else {
			left = styles.DimStyle.Render(m.StatusMsg)
		}
	}

	var hints []string
	for _, b := range m.Keys.ShortHelp() {
		h := b.Help()
		hints = append(hints, styles.HelpKeyStyle.Render(h.Key)+" "+styles.HelpDescStyle.Render(h.Desc))
	}
	right := strings.Join(hints, "  ")

	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}
