package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/JohnDeved/playshelf/internal/library"
	"github.com/JohnDeved/playshelf/internal/playtime"
	"github.com/JohnDeved/playshelf/internal/util"
)

// catalogModel is the scrollable list of game cards.
type catalogModel struct {
	rows   []library.Row
	cursor int
	offset int // viewport scroll offset
	height int // visible area height
}

func newCatalogModel() catalogModel {
	return catalogModel{height: 20}
}

// setRows replaces the rows and returns to the top of the list.
func (c *catalogModel) setRows(rows []library.Row) {
	c.rows = rows
	c.cursor = 0
	c.offset = 0
}

func (c *catalogModel) normalizeViewport() {
	total := len(c.rows)
	if total <= 0 {
		c.cursor = 0
		c.offset = 0
		return
	}
	if c.cursor < 0 {
		c.cursor = 0
	}
	if c.cursor >= total {
		c.cursor = total - 1
	}
	if c.offset < 0 {
		c.offset = 0
	}
	if c.cursor < c.offset {
		c.offset = c.cursor
	}
	if c.height > 0 && c.cursor >= c.offset+c.height {
		c.offset = c.cursor - c.height + 1
	}
	maxOffset := total - c.height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if c.offset > maxOffset {
		c.offset = maxOffset
	}
}

func (c *catalogModel) selected() *library.Row {
	c.normalizeViewport()
	if c.cursor >= 0 && c.cursor < len(c.rows) {
		return &c.rows[c.cursor]
	}
	return nil
}

// rowAt maps a line inside the list area to a row index, or -1.
func (c *catalogModel) rowAt(line int) int {
	if line < 0 || line >= c.height {
		return -1
	}
	idx := c.offset + line
	if idx >= len(c.rows) {
		return -1
	}
	return idx
}

func (c *catalogModel) moveUp() {
	c.normalizeViewport()
	if c.cursor > 0 {
		c.cursor--
		if c.cursor < c.offset {
			c.offset = c.cursor
		}
	}
}

func (c *catalogModel) moveDown() {
	c.normalizeViewport()
	if c.cursor < len(c.rows)-1 {
		c.cursor++
		if c.cursor >= c.offset+c.height {
			c.offset = c.cursor - c.height + 1
		}
	}
}

func (c *catalogModel) pageUp() {
	if len(c.rows) == 0 || c.height <= 0 {
		c.goHome()
		return
	}
	c.cursor -= c.height
	c.offset -= c.height
	c.normalizeViewport()
}

func (c *catalogModel) pageDown() {
	if len(c.rows) == 0 || c.height <= 0 {
		c.goHome()
		return
	}
	c.cursor += c.height
	c.offset += c.height
	c.normalizeViewport()
}

func (c *catalogModel) goHome() {
	c.cursor = 0
	c.offset = 0
}

func (c *catalogModel) goEnd() {
	c.cursor = len(c.rows) - 1
	if c.cursor < 0 {
		c.cursor = 0
	}
	c.offset = c.cursor - c.height + 1
	if c.offset < 0 {
		c.offset = 0
	}
}

// view renders the visible cards. An empty list shows emptyMsg instead.
func (c *catalogModel) view(width int, emptyMsg string) string {
	if len(c.rows) == 0 {
		return "\n  " + helpStyle.Render(emptyMsg) + "\n"
	}

	c.normalizeViewport()
	end := c.offset + c.height
	if end > len(c.rows) {
		end = len(c.rows)
	}

	rowWidth := width - selectedStyle.GetHorizontalFrameSize()
	if rowWidth < 30 {
		rowWidth = 30
	}

	var sb strings.Builder
	for i := c.offset; i < end; i++ {
		sb.WriteString(renderCard(c.rows[i], rowWidth, i == c.cursor))
		sb.WriteString("\n")
	}

	if len(c.rows) > c.height {
		sb.WriteString(helpStyle.Render(fmt.Sprintf("  %d/%d games", c.cursor+1, len(c.rows))))
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderCard renders one game as a single line: title, short playtime and
// last-played date.
func renderCard(r library.Row, rowWidth int, isSelected bool) string {
	play := playtimeStyle.Render(playtime.Format(r.PlayMins, playtime.Short))
	date := dateStyle.Render(util.FormatDate(r.LastPlayed))
	titleWidth := rowWidth - lipgloss.Width(play) - lipgloss.Width(date) - 4
	if titleWidth < 8 {
		titleWidth = 8
	}
	title := gameTitleStyle.Render(util.Truncate(r.Title, titleWidth))
	line := fmt.Sprintf("  %s%s%s", padToWidth(title, titleWidth), play, date)

	if isSelected {
		return selectedStyle.Render(padToWidth(line, rowWidth))
	}
	return normalStyle.Render(padToWidth(line, rowWidth))
}

// renderStats renders the stats panel line.
func renderStats(s library.Stats) string {
	item := func(label, value string) string {
		return statLabelStyle.Render(label+" ") + statValueStyle.Render(value)
	}
	return "  " + strings.Join([]string{
		item("Total games", util.FormatCount(s.Total)),
		item("Total playtime", playtime.Format(s.SumMins, playtime.Short)),
		item("Last played", util.FormatDate(s.Last)),
	}, "    ")
}

func padToWidth(s string, width int) string {
	pad := width - lipgloss.Width(s)
	if pad <= 0 {
		return s
	}
	return s + strings.Repeat(" ", pad)
}
