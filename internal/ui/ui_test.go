package ui

import (
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/marquee/internal/detail"
	"github.com/five82/marquee/internal/omdb"
	"github.com/five82/marquee/internal/search"
	"github.com/five82/marquee/internal/state"
)

type fakeSearch struct {
	mu        sync.Mutex
	queries   []string
	refreshes int
	snap      search.Snapshot
	ch        chan search.Snapshot
}

func newFakeSearch() *fakeSearch {
	return &fakeSearch{ch: make(chan search.Snapshot, 1)}
}

func (f *fakeSearch) SetQuery(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, text)
}
func (f *fakeSearch) Refresh()                  { f.refreshes++ }
func (f *fakeSearch) Mode() search.Mode         { return search.ModeRemote }
func (f *fakeSearch) Snapshot() search.Snapshot { return f.snap }
func (f *fakeSearch) Subscribe() (<-chan search.Snapshot, func()) {
	return f.ch, func() {}
}

type fakeDetail struct {
	loads   []string
	reloads int
	ch      chan detail.Snapshot
}

func (f *fakeDetail) Load(id string)            { f.loads = append(f.loads, id) }
func (f *fakeDetail) Reload()                   { f.reloads++ }
func (f *fakeDetail) Snapshot() detail.Snapshot { return detail.Snapshot{} }
func (f *fakeDetail) Subscribe() (<-chan detail.Snapshot, func()) {
	return f.ch, func() {}
}

func newTestModel(t *testing.T) (Model, *fakeSearch, *fakeDetail) {
	t.Helper()
	s := newFakeSearch()
	d := &fakeDetail{ch: make(chan detail.Snapshot, 1)}
	m := New(Options{Search: s, Detail: d, ThemeName: "Nightfox"})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model), s, d
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func results() search.Snapshot {
	list := []omdb.ResultItem{
		{ID: "tt1", Title: omdb.Some("Batman"), Year: omdb.Some("1989"), Type: omdb.Some("movie")},
		{ID: "tt2", Title: omdb.Some("Batman Returns")},
	}
	return search.Snapshot{Query: "bat", Results: list, Visible: list, TotalCount: 2, Phase: state.Success}
}

func TestTypingForwardsEveryEdit(t *testing.T) {
	m, s, _ := newTestModel(t)
	m = send(t, m, runes("b"), runes("a"), runes("t"))

	want := []string{"b", "ba", "bat"}
	if strings.Join(s.queries, ",") != strings.Join(want, ",") {
		t.Fatalf("queries = %v, want %v", s.queries, want)
	}
	if m.input.Value() != "bat" {
		t.Fatalf("input = %q, want bat", m.input.Value())
	}
}

func TestEscClearsQuery(t *testing.T) {
	m, s, _ := newTestModel(t)
	m = send(t, m, runes("x"), tea.KeyMsg{Type: tea.KeyEsc})

	if got := s.queries[len(s.queries)-1]; got != "" {
		t.Fatalf("last query = %q, want empty", got)
	}
}

func TestSnapshotRendersResults(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = send(t, m, searchMsg(results()))

	out := m.View()
	for _, want := range []string{"Batman", "Batman Returns", "1989", "N/A", "2 results"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

func TestEmptyAndFailureMessages(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = send(t, m, searchMsg(search.Snapshot{Query: "zzz", Phase: state.Empty}))
	if !strings.Contains(m.View(), "No results") {
		t.Fatalf("empty view missing No results:\n%s", m.View())
	}

	failed := search.Snapshot{Query: "bat", Phase: state.Failure, Err: &omdb.TransportError{Op: "search", StatusCode: 503}}
	m = send(t, m, searchMsg(failed))
	if !strings.Contains(m.View(), "status 503") {
		t.Fatalf("failure view missing error text:\n%s", m.View())
	}
}

func TestEnterOpensDetail(t *testing.T) {
	m, _, d := newTestModel(t)
	m = send(t, m, searchMsg(results()), tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})

	if len(d.loads) != 1 || d.loads[0] != "tt2" {
		t.Fatalf("loads = %v, want [tt2]", d.loads)
	}
	if m.view != viewDetail {
		t.Fatalf("view = %v, want detail", m.view)
	}

	m = send(t, m, runes("r"))
	if d.reloads != 1 {
		t.Fatalf("reloads = %d, want 1", d.reloads)
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.view != viewSearch {
		t.Fatalf("view = %v, want search after esc", m.view)
	}
}

func TestCursorClampsToResults(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = send(t, m, searchMsg(results()), tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", m.cursor)
	}

	m = send(t, m, searchMsg(search.Snapshot{Phase: state.Idle}))
	if m.cursor != 0 {
		t.Fatalf("cursor = %d, want 0 after results cleared", m.cursor)
	}
}

func TestDetailRendersPlaceholders(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = send(t, m, searchMsg(results()), tea.KeyMsg{Type: tea.KeyEnter})

	rec := omdb.DetailRecord{
		ResultItem: omdb.ResultItem{ID: "tt1", Title: omdb.Some("Batman"), Year: omdb.Some("1989")},
		Director:   omdb.Some("Tim Burton"),
		IMDbRating: omdb.Some("7.5"),
		IMDbVotes:  omdb.Some("400,000"),
	}
	m = send(t, m, detailMsg(detail.Snapshot{ID: "tt1", Record: rec, HasRecord: true, Phase: state.Success}))

	out := m.View()
	for _, want := range []string{"Batman (1989)", "Tim Burton", "7.5 (400,000 votes)", "N/A"} {
		if !strings.Contains(out, want) {
			t.Fatalf("detail view missing %q:\n%s", want, out)
		}
	}
}

func TestDetailNotFound(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = send(t, m, searchMsg(results()), tea.KeyMsg{Type: tea.KeyEnter})
	m = send(t, m, detailMsg(detail.Snapshot{ID: "tt1", Phase: state.NotFound}))

	if !strings.Contains(m.View(), "Not found") {
		t.Fatalf("view missing Not found:\n%s", m.View())
	}
}

func TestDetailLabelsRetainedRecord(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = send(t, m, searchMsg(results()), tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})

	prev := omdb.DetailRecord{ResultItem: omdb.ResultItem{ID: "tt1", Title: omdb.Some("Batman")}}
	m = send(t, m, detailMsg(detail.Snapshot{ID: "tt2", Record: prev, HasRecord: true, IsLoading: true, Phase: state.Loading}))
	if out := m.View(); !strings.Contains(out, "showing previous: Batman (tt1)") {
		t.Fatalf("loading view does not label the retained record:\n%s", out)
	}

	m = send(t, m, detailMsg(detail.Snapshot{ID: "tt2", Record: prev, HasRecord: true, Err: errors.New("boom"), Phase: state.Failure}))
	if out := m.View(); !strings.Contains(out, "showing previous: Batman (tt1)") {
		t.Fatalf("failure view does not label the retained record:\n%s", out)
	}

	m = send(t, m, detailMsg(detail.Snapshot{ID: "tt1", Record: prev, HasRecord: true, Phase: state.Success}))
	if out := m.View(); strings.Contains(out, "showing previous") {
		t.Fatalf("loaded record should not be labelled as previous:\n%s", out)
	}
}

func TestDetailScrollKeysMatchHelp(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = send(t, m, searchMsg(results()), tea.KeyMsg{Type: tea.KeyEnter})

	rec := omdb.DetailRecord{ResultItem: omdb.ResultItem{ID: "tt1", Title: omdb.Some("Batman")}}
	for i := 0; i < 60; i++ {
		rec.Ratings = append(rec.Ratings, omdb.Rating{Source: omdb.Some("Source"), Value: omdb.Some("1/10")})
	}
	m = send(t, m, detailMsg(detail.Snapshot{ID: "tt1", Record: rec, HasRecord: true, Phase: state.Success}))

	m = send(t, m, runes("d"))
	if m.detailViewport.YOffset != 0 {
		t.Fatalf("unlisted key scrolled the detail view to %d", m.detailViewport.YOffset)
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyPgDown})
	paged := m.detailViewport.YOffset
	if paged == 0 {
		t.Fatal("pgdown did not scroll the detail view")
	}
	m = send(t, m, runes("k"))
	if m.detailViewport.YOffset != paged-1 {
		t.Fatalf("YOffset = %d after k, want %d", m.detailViewport.YOffset, paged-1)
	}

	help := m.renderHelp()
	for _, want := range []string{"b/pgup", "f/pgdown", "k/up", "j/down"} {
		if !strings.Contains(help, want) {
			t.Fatalf("help missing %q", want)
		}
	}
}

func TestHelpOverlayClosesOnAnyKey(t *testing.T) {
	m, s, _ := newTestModel(t)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyF1})
	if !m.showHelp || !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Fatalf("help overlay not shown")
	}
	m = send(t, m, runes("x"))
	if m.showHelp {
		t.Fatalf("help overlay still shown")
	}
	if len(s.queries) != 0 {
		t.Fatalf("key that closed help reached the query: %v", s.queries)
	}
}

func TestCycleThemeSavesPrefs(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.prefsPath = t.TempDir() + "/prefs.toml"
	m = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", m.theme.Name)
	}
}

func TestNextThemeCycles(t *testing.T) {
	names := ThemeNames()
	for i, name := range names {
		if got := NextTheme(name); got != names[(i+1)%len(names)] {
			t.Fatalf("NextTheme(%q) = %q", name, got)
		}
	}
	if got := NextTheme("unknown"); got != names[0] {
		t.Fatalf("NextTheme(unknown) = %q, want %q", got, names[0])
	}
	if GetTheme("unknown").Name != "Nightfox" {
		t.Fatalf("GetTheme(unknown) did not fall back to Nightfox")
	}
}

func TestWrap(t *testing.T) {
	got := wrap("a quick brown fox jumps", 10)
	want := []string{"a quick", "brown fox", "jumps"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("wrap = %q, want %q", got, want)
	}
	if wrap("   ", 10) != nil {
		t.Fatalf("wrap of blank text should be nil")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("Batman Returns", 8); got != "Batma..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("Alien", 8); got != "Alien" {
		t.Fatalf("truncate = %q", got)
	}
}
