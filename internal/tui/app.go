package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/JohnDeved/playshelf/internal/client"
	"github.com/JohnDeved/playshelf/internal/config"
	"github.com/JohnDeved/playshelf/internal/library"
	"github.com/JohnDeved/playshelf/internal/watch"
)

// listTop is the screen line where the game list starts: header, search,
// stats and a separator come first.
const listTop = 4

type imageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)
}

// Source loads the catalog and its images.
type Source interface {
	imageFetcher
	LoadCatalog(ctx context.Context, src string) ([]library.Game, error)
}

// Messages
type catalogMsg struct {
	gen   int
	games []library.Game
	err   error
}

// catalogChangedMsg is sent when the local catalog file changes on disk.
type catalogChangedMsg struct{}

type statusClearMsg struct{ id int }

// Model is the main Bubble Tea model.
type Model struct {
	src        Source
	cfg        *config.Config
	rows       []library.Row
	state      library.ViewState
	view       library.View
	catalog    catalogModel
	search     textinput.Model
	modal      modalModel
	spinner    spinner.Model
	width      int
	height     int
	loading    bool
	loadGen    int
	loadErr    error
	showHelp   bool
	helpOffset int
	statusMsg  string
	statusID   int
	copyText   func(string) error
	now        func() time.Time
}

// NewModel creates the TUI model seeded with an initial view state.
func NewModel(src Source, cfg *config.Config, state library.ViewState) Model {
	state.Sort = library.ParseSortKey(string(state.Sort))

	s := spinner.New()
	s.Spinner = spinner.Dot

	ti := textinput.New()
	ti.Placeholder = "Search games..."
	ti.CharLimit = 256
	ti.Width = 40
	ti.Prompt = "Search: "
	ti.PromptStyle = searchPromptStyle
	ti.SetValue(state.Query)

	m := Model{
		src:      src,
		cfg:      cfg,
		state:    state,
		catalog:  newCatalogModel(),
		search:   ti,
		spinner:  s,
		loading:  true,
		copyText: clipboard.WriteAll,
		now:      time.Now,
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.loadCatalog(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.catalog.height = m.height - listTop - 3 // list footer, separator, status bar
		if m.catalog.height < 1 {
			m.catalog.height = 1
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case catalogMsg:
		if msg.gen != m.loadGen {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			log.Error().Err(msg.err).Str("catalog", m.cfg.Catalog).Msg("loading catalog")
			m.loadErr = msg.err
			return m, nil
		}
		m.loadErr = nil
		m.rows = library.NewRows(msg.games)
		m.refresh()
		return m, nil

	case catalogChangedMsg:
		return m, tea.Batch(m.reload(), m.setStatus("Catalog changed, reloading"))

	case imageMsg:
		m.modal.apply(msg)
		return m, nil

	case statusClearMsg:
		if msg.id == m.statusID {
			m.statusMsg = ""
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.search.Focused() {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		m.modal.close()
		return m, tea.Quit
	}

	if m.modal.open {
		switch key {
		case "esc", "q", "x":
			m.modal.close()
			m.search.Blur()
		}
		return m, nil
	}

	if m.search.Focused() {
		switch key {
		case "enter":
			m.search.Blur()
			return m, nil
		case "esc":
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.setQuery(m.search.Value())
		return m, cmd
	}

	if m.showHelp {
		switch key {
		case "?", "esc", "q":
			m.showHelp = false
			m.helpOffset = 0
		case "up", "k":
			if m.helpOffset > 0 {
				m.helpOffset--
			}
		case "down", "j":
			m.helpOffset++
		case "home", "g":
			m.helpOffset = 0
		}
		return m, nil
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp = true
	case "/":
		m.search.Focus()
		return m, textinput.Blink
	case "esc":
		m.search.Blur()
	case "s":
		m.setSort(m.state.Sort.Next(1))
		return m, m.setStatus("Sort: " + m.state.Sort.Label())
	case "S":
		m.setSort(m.state.Sort.Next(-1))
		return m, m.setStatus("Sort: " + m.state.Sort.Label())
	case "1", "2", "3", "4":
		m.setSort(library.SortKeys[int(key[0]-'1')])
		return m, m.setStatus("Sort: " + m.state.Sort.Label())
	case "up", "k":
		m.catalog.moveUp()
	case "down", "j":
		m.catalog.moveDown()
	case "pgup", "ctrl+u":
		m.catalog.pageUp()
	case "pgdown", "ctrl+d":
		m.catalog.pageDown()
	case "home", "g":
		m.catalog.goHome()
	case "end", "G":
		m.catalog.goEnd()
	case "enter":
		return m, m.openSelected()
	case "r":
		return m, tea.Batch(m.reload(), m.setStatus("Reloading catalog"))
	case "c":
		return m, m.copyLocation()
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.modal.open {
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.modal.close()
		}
		return m, nil
	}
	if m.showHelp {
		return m, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.catalog.moveUp()
	case tea.MouseButtonWheelDown:
		m.catalog.moveDown()
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
		if idx := m.catalog.rowAt(msg.Y - listTop); idx >= 0 {
			m.catalog.cursor = idx
			m.search.Blur()
			return m, m.openSelected()
		}
	}
	return m, nil
}

// refresh re-derives the view from the loaded rows and the current state.
func (m *Model) refresh() {
	m.view = library.Derive(m.rows, m.state)
	m.catalog.setRows(m.view.Rows)
}

func (m *Model) setQuery(q string) {
	if q == m.state.Query {
		return
	}
	m.state.Query = q
	m.refresh()
}

func (m *Model) setSort(k library.SortKey) {
	if k == m.state.Sort {
		return
	}
	m.state.Sort = k
	m.refresh()
}

// Location returns the current view state as a location string.
func (m Model) Location() string {
	return m.state.Location()
}

func (m *Model) openSelected() tea.Cmd {
	sel := m.catalog.selected()
	if sel == nil {
		return nil
	}
	cols := m.width - 16
	if cols > 48 {
		cols = 48
	}
	if cols < 8 {
		cols = 8
	}
	rows := cols / 2
	if maxRows := m.height - 16; rows > maxRows {
		rows = maxRows
	}
	if rows < 4 {
		rows = 4
	}
	return m.modal.show(m.src, *sel, m.cfg.HiResFrom, m.cfg.HiResTo, cols, rows)
}

func (m *Model) copyLocation() tea.Cmd {
	loc := m.state.Location()
	if loc == "" {
		return m.setStatus("Default view, nothing to copy")
	}
	if err := m.copyText(loc); err != nil {
		log.Warn().Err(err).Msg("copying location")
		return m.setStatus("Clipboard unavailable: " + err.Error())
	}
	return m.setStatus("Copied " + loc)
}

// Commands

// reload starts a new catalog load. Results of earlier loads still in
// flight are ignored when they arrive.
func (m *Model) reload() tea.Cmd {
	m.loading = true
	m.loadGen++
	return m.loadCatalog()
}

func (m Model) loadCatalog() tea.Cmd {
	src, catalog, gen := m.src, m.cfg.Catalog, m.loadGen
	return func() tea.Msg {
		games, err := src.LoadCatalog(context.Background(), catalog)
		return catalogMsg{gen: gen, games: games, err: err}
	}
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("  Game Library  "))
	sb.WriteString(sortBadgeStyle.Render(m.state.Sort.Label()))
	if loc := m.state.Location(); loc != "" {
		sb.WriteString("  ")
		sb.WriteString(locationStyle.Render(loc))
	}
	sb.WriteString("\n")
	sb.WriteString("  ")
	sb.WriteString(m.search.View())
	sb.WriteString("\n")
	sb.WriteString(renderStats(m.view.Stats))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("─", m.width))
	sb.WriteString("\n")

	// Content area.
	contentHeight := m.height - listTop - 2
	switch {
	case m.showHelp:
		sb.WriteString(m.helpView(contentHeight))
	case m.modal.open:
		sb.WriteString(m.modal.view(m.width, contentHeight, m.spinner.View(), m.now()))
	case m.loadErr != nil:
		sb.WriteString("\n")
		sb.WriteString(errorStyle.Render(fmt.Sprintf("  Failed to load games.json: %v", m.loadErr)))
		sb.WriteString("\n")
		sb.WriteString(helpStyle.Render("  Press r to retry."))
		sb.WriteString("\n")
	case m.loading && len(m.rows) == 0:
		sb.WriteString(fmt.Sprintf("\n  %s Loading catalog...\n", m.spinner.View()))
	default:
		sb.WriteString(m.catalog.view(m.width, m.view.EmptyMessage))
	}

	// Status bar.
	statusLine := m.statusMsg
	if statusLine == "" {
		statusLine = m.defaultStatus()
	}
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("─", m.width))
	sb.WriteString("\n")
	sb.WriteString(statusBarStyle.Width(m.width).Render(statusLine))

	return sb.String()
}

func (m Model) defaultStatus() string {
	switch {
	case m.modal.open:
		return "esc/q/x:close"
	case m.search.Focused():
		return "type to filter  Enter/Esc:done"
	default:
		return "/:search  j/k:navigate  Enter:details  s/S:sort  c:copy location  r:reload  ?:help"
	}
}

func (m Model) helpView(maxLines int) string {
	lines := []string{
		"  Keyboard Shortcuts",
		"  ──────────────────",
		"",
		"  Global:",
		"    ?             Toggle help",
		"    q / Ctrl+C    Quit",
		"    r             Reload catalog",
		"    c             Copy location to clipboard",
		"",
		"  Search:",
		"    /             Focus search",
		"    Enter / Esc   Leave search",
		"",
		"  Sort:",
		"    s / S         Next / previous sort",
		"    1-4           Recently played, A-Z, least played, most played",
		"",
		"  List:",
		"    j/k / Up/Down Navigate",
		"    g / G         Go to top/bottom",
		"    PgUp / PgDn   Page up/down",
		"    Enter / click Show details",
		"",
		"  Details:",
		"    Esc / q / x   Close",
		"    click         Close",
		"",
		"  Press ? or Esc to close help.",
	}

	if maxLines < 6 {
		maxLines = 6
	}
	helpOffset := m.helpOffset
	maxOffset := len(lines) - maxLines
	if maxOffset < 0 {
		maxOffset = 0
	}
	if helpOffset > maxOffset {
		helpOffset = maxOffset
	}

	end := helpOffset + maxLines
	if end > len(lines) {
		end = len(lines)
	}
	return helpStyle.Render(strings.Join(lines[helpOffset:end], "\n"))
}

func (m *Model) setStatus(msg string) tea.Cmd {
	m.statusMsg = msg
	m.statusID++
	id := m.statusID
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return statusClearMsg{id: id}
	})
}

// Run starts the TUI and returns the location it ended on.
func Run(ctx context.Context, src Source, cfg *config.Config, state library.ViewState) (string, error) {
	m := NewModel(src, cfg, state)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	if !client.IsRemote(cfg.Catalog) {
		err := watch.File(ctx, cfg.Catalog, watch.DefaultDebounce, func() {
			p.Send(catalogChangedMsg{})
		})
		if err != nil {
			log.Warn().Err(err).Msg("catalog auto-reload disabled")
		}
	}

	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.modal.close()
		return fm.Location(), err
	}
	return state.Location(), err
}
