package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/marquee/internal/detail"
	"github.com/five82/marquee/internal/logtail"
	"github.com/five82/marquee/internal/prefs"
	"github.com/five82/marquee/internal/search"
)

// SearchController is the search state the UI renders and drives.
type SearchController interface {
	SetQuery(text string)
	Refresh()
	Mode() search.Mode
	Snapshot() search.Snapshot
	Subscribe() (<-chan search.Snapshot, func())
}

// DetailController is the detail state the UI renders and drives.
type DetailController interface {
	Load(id string)
	Reload()
	Snapshot() detail.Snapshot
	Subscribe() (<-chan detail.Snapshot, func())
}

type view int

const (
	viewSearch view = iota
	viewDetail
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Search    SearchController
	Detail    DetailController
	ThemeName string
	PrefsPath string
	LogPath   string
	Logger    zerolog.Logger
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx       context.Context
	search    SearchController
	detail    DetailController
	prefsPath string
	logPath   string
	log       zerolog.Logger

	searchCh    <-chan search.Snapshot
	detailCh    <-chan detail.Snapshot
	unsubscribe []func()

	keys    keyMap
	theme   Theme
	view    view
	width   int
	height  int
	ready   bool
	input   textinput.Model
	spinner spinner.Model

	searchSnap search.Snapshot
	detailSnap detail.Snapshot
	cursor     int

	detailViewport viewport.Model

	showHelp    bool
	showLogs    bool
	logViewport viewport.Model
	logEntries  []logtail.Entry
	logErr      error
}

// New creates the model and subscribes to both coordinators.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	input := textinput.New()
	input.Prompt = "› "
	input.Placeholder = "Search titles"
	input.CharLimit = 120
	input.Focus()

	spin := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := Model{
		ctx:       ctx,
		search:    opts.Search,
		detail:    opts.Detail,
		prefsPath: opts.PrefsPath,
		logPath:   opts.LogPath,
		log:       opts.Logger,
		keys:      DefaultKeyMap(),
		theme:     GetTheme(opts.ThemeName),
		view:      viewSearch,
		input:     input,
		spinner:   spin,
	}

	if m.search != nil {
		m.searchSnap = m.search.Snapshot()
		m.input.SetValue(m.searchSnap.Query)
		m.input.CursorEnd()
		ch, cancel := m.search.Subscribe()
		m.searchCh = ch
		m.unsubscribe = append(m.unsubscribe, cancel)
	}
	if m.detail != nil {
		m.detailSnap = m.detail.Snapshot()
		ch, cancel := m.detail.Subscribe()
		m.detailCh = ch
		m.unsubscribe = append(m.unsubscribe, cancel)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		waitForSearch(m.searchCh),
		waitForDetail(m.detailCh),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		return m, nil

	case searchMsg:
		m.searchSnap = search.Snapshot(msg)
		m.clampCursor()
		return m, waitForSearch(m.searchCh)

	case detailMsg:
		m.detailSnap = detail.Snapshot(msg)
		m.refreshDetailViewport()
		return m, waitForDetail(m.detailCh)

	case logsMsg:
		m.logEntries = msg.entries
		m.logErr = msg.err
		m.refreshLogViewport()
		return m, nil

	case logTickMsg:
		if !m.showLogs {
			return m, nil
		}
		return m, tea.Batch(readLogsCmd(m.logPath), logTickCmd())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.view == viewSearch {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.showLogs {
		return m.renderLogs()
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.refreshDetailViewport()
		m.savePrefs()
		return m, nil
	case key.Matches(msg, m.keys.Logs):
		m.showLogs = !m.showLogs
		if m.showLogs {
			return m, tea.Batch(readLogsCmd(m.logPath), logTickCmd())
		}
		return m, nil
	}

	if m.showLogs {
		if msg.Type == tea.KeyEsc {
			m.showLogs = false
			return m, nil
		}
		var cmd tea.Cmd
		m.logViewport, cmd = m.logViewport.Update(msg)
		return m, cmd
	}

	if m.view == viewDetail {
		return m.handleDetailKey(msg)
	}
	return m.handleSearchKey(msg)
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.searchSnap.Visible
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
		return m, nil
	case key.Matches(msg, m.keys.Open):
		if m.cursor < 0 || m.cursor >= len(visible) || m.detail == nil {
			return m, nil
		}
		m.detail.Load(visible[m.cursor].ID)
		m.view = viewDetail
		m.input.Blur()
		m.detailViewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		if m.search != nil {
			m.search.Refresh()
		}
		return m, nil
	case key.Matches(msg, m.keys.Clear):
		if m.input.Value() == "" {
			return m, nil
		}
		m.input.SetValue("")
		m.queryChanged()
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.queryChanged()
	}
	return m, cmd
}

func (m *Model) queryChanged() {
	m.cursor = 0
	if m.search != nil {
		m.search.SetQuery(m.input.Value())
	}
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.view = viewSearch
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Reload):
		if m.detail != nil {
			m.detail.Reload()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m *Model) clampCursor() {
	n := len(m.searchSnap.Visible)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) resize() {
	bodyHeight := m.height - chromeHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	if !m.ready {
		m.detailViewport = viewport.New(m.width, bodyHeight)
		m.detailViewport.KeyMap = m.keys.detailScrollKeys()
		m.logViewport = viewport.New(m.width-4, m.height-4)
	}
	m.detailViewport.Width = m.width
	m.detailViewport.Height = bodyHeight
	m.logViewport.Width = m.width - 4
	m.logViewport.Height = m.height - 4
	m.input.Width = m.width - 4
	m.refreshDetailViewport()
	m.refreshLogViewport()
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name, LastQuery: m.searchSnap.Query}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.log.Warn().Err(err).Msg("save preferences failed")
	}
}

// Messages

type searchMsg search.Snapshot

type detailMsg detail.Snapshot

type logsMsg struct {
	entries []logtail.Entry
	err     error
}

type logTickMsg time.Time

// Commands

func waitForSearch(ch <-chan search.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return searchMsg(snap)
	}
}

func waitForDetail(ch <-chan detail.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return detailMsg(snap)
	}
}

func readLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		entries, err := logtail.Read(path, logTailLines)
		return logsMsg{entries: entries, err: err}
	}
}

func logTickCmd() tea.Cmd {
	return tea.Tick(logRefreshInterval, func(t time.Time) tea.Msg {
		return logTickMsg(t)
	})
}

// Run starts the Bubble Tea program and blocks until it exits. Preferences
// are saved on the way out.
func Run(opts Options) error {
	m := New(opts)
	defer func() {
		for _, cancel := range m.unsubscribe {
			cancel()
		}
	}()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.savePrefs()
	}
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
