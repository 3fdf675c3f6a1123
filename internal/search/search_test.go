package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/marquee/internal/omdb"
	"github.com/five82/marquee/internal/state"
)

type reply struct {
	res omdb.SearchResult
	err error
}

type call struct {
	query string
	ctx   context.Context
	out   chan reply
}

// gatedSearcher parks every Search call until the test answers it.
type gatedSearcher struct {
	mu    sync.Mutex
	calls []*call
	added chan struct{}
}

func newGatedSearcher() *gatedSearcher {
	return &gatedSearcher{added: make(chan struct{}, 64)}
}

func (g *gatedSearcher) Search(ctx context.Context, query string, _ bool) (omdb.SearchResult, error) {
	c := &call{query: query, ctx: ctx, out: make(chan reply, 1)}
	g.mu.Lock()
	g.calls = append(g.calls, c)
	g.mu.Unlock()
	g.added <- struct{}{}
	r := <-c.out
	return r.res, r.err
}

func (g *gatedSearcher) next(t *testing.T) *call {
	t.Helper()
	select {
	case <-g.added:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for a search call")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[len(g.calls)-1]
}

func (g *gatedSearcher) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// instantSearcher answers from a fixed table.
type instantSearcher struct {
	mu      sync.Mutex
	queries []string
	fresh   []bool
	results map[string]omdb.SearchResult
	err     error
}

func (s *instantSearcher) Search(_ context.Context, query string, fresh bool) (omdb.SearchResult, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.fresh = append(s.fresh, fresh)
	s.mu.Unlock()
	if s.err != nil {
		return omdb.SearchResult{}, s.err
	}
	res, ok := s.results[query]
	if !ok {
		return omdb.SearchResult{Status: omdb.StatusEmpty}, nil
	}
	return res, nil
}

func (s *instantSearcher) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

func (s *instantSearcher) freshFlags() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.fresh...)
}

func items(pairs ...string) []omdb.ResultItem {
	var out []omdb.ResultItem
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, omdb.ResultItem{ID: pairs[i], Title: omdb.Some(pairs[i+1])})
	}
	return out
}

func found(list []omdb.ResultItem) omdb.SearchResult {
	return omdb.SearchResult{Status: omdb.StatusFound, Items: list, TotalCount: len(list)}
}

func newCoordinator(t *testing.T, src Searcher, opts Options) *Coordinator {
	t.Helper()
	opts.Logger = zerolog.Nop()
	c := New(context.Background(), src, opts)
	t.Cleanup(c.Close)
	return c
}

func TestSearch_PublishesServerOrder(t *testing.T) {
	src := &instantSearcher{results: map[string]omdb.SearchResult{
		"bat": found(items("tt1", "Batman", "tt2", "Batman Returns")),
	}}
	c := newCoordinator(t, src, Options{})

	c.SetQuery("bat")
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, "bat", snap.Query)
	assert.Equal(t, items("tt1", "Batman", "tt2", "Batman Returns"), snap.Results)
	assert.Equal(t, snap.Results, snap.Visible)
	assert.False(t, snap.IsLoading)
	assert.NoError(t, snap.Err)
	assert.Equal(t, state.Success, snap.Phase)
	assert.Equal(t, "bat", snap.FetchedQuery)
	assert.Empty(t, snap.Message())
}

func TestSearch_EmptyIsNotAnError(t *testing.T) {
	c := newCoordinator(t, &instantSearcher{}, Options{})

	c.SetQuery("zzzzqqq")
	c.Wait()

	snap := c.Snapshot()
	assert.Empty(t, snap.Results)
	assert.NoError(t, snap.Err)
	assert.False(t, snap.IsLoading)
	assert.Equal(t, state.Empty, snap.Phase)
	assert.Equal(t, "No results", snap.Message())
}

func TestSearch_BlankQueryDoesNotFetch(t *testing.T) {
	src := &instantSearcher{results: map[string]omdb.SearchResult{
		"bat": found(items("tt1", "Batman")),
	}}
	c := newCoordinator(t, src, Options{})

	c.SetQuery("bat")
	c.Wait()
	c.SetQuery("   ")
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, []string{"bat"}, src.seen())
	assert.Equal(t, "   ", snap.Query)
	assert.Empty(t, snap.Results)
	assert.False(t, snap.IsLoading)
	assert.NoError(t, snap.Err)
	assert.Equal(t, state.Idle, snap.Phase)
}

func TestSearch_FailureClearsResults(t *testing.T) {
	src := &instantSearcher{results: map[string]omdb.SearchResult{
		"bat": found(items("tt1", "Batman")),
	}}
	c := newCoordinator(t, src, Options{})
	c.SetQuery("bat")
	c.Wait()

	src.err = &omdb.TransportError{Op: "search", Err: errors.New("connection refused")}
	c.SetQuery("batm")
	c.Wait()

	snap := c.Snapshot()
	assert.Empty(t, snap.Results)
	assert.False(t, snap.IsLoading)
	require.Error(t, snap.Err)
	assert.True(t, omdb.IsTransport(snap.Err))
	assert.Equal(t, state.Failure, snap.Phase)
	assert.Contains(t, snap.Message(), "connection refused")
}

func TestSearch_LoadingKeepsPreviousResults(t *testing.T) {
	src := newGatedSearcher()
	c := newCoordinator(t, src, Options{})

	c.SetQuery("bat")
	src.next(t).out <- reply{res: found(items("tt1", "Batman"))}
	c.Wait()

	c.SetQuery("batm")
	pending := src.next(t)
	snap := c.Snapshot()
	assert.True(t, snap.IsLoading)
	assert.NoError(t, snap.Err)
	assert.Equal(t, items("tt1", "Batman"), snap.Results)

	pending.out <- reply{res: found(items("tt3", "Batman Begins"))}
	c.Wait()
	assert.Equal(t, items("tt3", "Batman Begins"), c.Snapshot().Results)
}

func TestSearch_LatestIssuedWins(t *testing.T) {
	src := newGatedSearcher()
	c := newCoordinator(t, src, Options{})

	c.SetQuery("ba")
	first := src.next(t)
	c.SetQuery("bat")
	second := src.next(t)

	// The first fetch was cancelled when the second was issued.
	select {
	case <-first.ctx.Done():
	case <-time.After(time.Second):
		t.Fatalf("superseded fetch context was not cancelled")
	}

	second.out <- reply{res: found(items("tt1", "Batman"))}
	require.Eventually(t, func() bool { return !c.Snapshot().IsLoading }, time.Second, time.Millisecond)

	// The older fetch completes last and must not overwrite anything.
	first.out <- reply{res: found(items("tt9", "Bad Boys"))}
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, "bat", snap.Query)
	assert.Equal(t, "bat", snap.FetchedQuery)
	assert.Equal(t, items("tt1", "Batman"), snap.Results)
	assert.False(t, snap.IsLoading)
}

func TestSearch_StaleCompletionDoesNotEndLoading(t *testing.T) {
	src := newGatedSearcher()
	c := newCoordinator(t, src, Options{})

	c.SetQuery("ba")
	first := src.next(t)
	c.SetQuery("bat")
	second := src.next(t)

	first.out <- reply{err: context.Canceled}
	// Give the stale completion time to be processed.
	time.Sleep(20 * time.Millisecond)
	snap := c.Snapshot()
	assert.True(t, snap.IsLoading)
	assert.NoError(t, snap.Err)

	second.out <- reply{res: found(items("tt1", "Batman"))}
	c.Wait()
	assert.False(t, c.Snapshot().IsLoading)
}

func TestSearch_BlankQueryInvalidatesInFlight(t *testing.T) {
	src := newGatedSearcher()
	c := newCoordinator(t, src, Options{})

	c.SetQuery("bat")
	pending := src.next(t)
	c.SetQuery("")
	assert.False(t, c.Snapshot().IsLoading)

	pending.out <- reply{res: found(items("tt1", "Batman"))}
	c.Wait()

	snap := c.Snapshot()
	assert.Empty(t, snap.Results)
	assert.Equal(t, state.Idle, snap.Phase)
}

func TestSearch_Debounce(t *testing.T) {
	src := &instantSearcher{results: map[string]omdb.SearchResult{
		"batman": found(items("tt1", "Batman")),
	}}
	c := newCoordinator(t, src, Options{Debounce: 30 * time.Millisecond})

	for _, q := range []string{"b", "ba", "bat", "batm", "batma", "batman"} {
		c.SetQuery(q)
	}
	snap := c.Snapshot()
	assert.Equal(t, "batman", snap.Query)
	assert.True(t, snap.IsLoading)

	c.Wait()
	assert.Equal(t, []string{"batman"}, src.seen())
	assert.Equal(t, items("tt1", "Batman"), c.Snapshot().Results)
	assert.False(t, c.Snapshot().IsLoading)
}

func TestSearch_LocalModeFiltersWithoutFetching(t *testing.T) {
	src := &instantSearcher{results: map[string]omdb.SearchResult{
		"movie": found(items("tt1", "Batman", "tt2", "Alien", "tt3", "Batman Returns")),
	}}
	c := newCoordinator(t, src, Options{Mode: ModeLocal, SeedQuery: "movie"})

	c.Refresh()
	c.Wait()
	assert.Len(t, c.Snapshot().Visible, 3)

	c.SetQuery("BAT")
	c.Wait()
	snap := c.Snapshot()
	assert.Equal(t, []string{"movie"}, src.seen())
	assert.Equal(t, []bool{true}, src.freshFlags())
	assert.Equal(t, "BAT", snap.Query)
	assert.Len(t, snap.Results, 3)
	assert.Equal(t, items("tt1", "Batman", "tt3", "Batman Returns"), snap.Visible)

	c.SetQuery("zzz")
	assert.Empty(t, c.Snapshot().Visible)
	assert.Equal(t, "No results", c.Snapshot().Message())

	c.SetQuery("")
	assert.Len(t, c.Snapshot().Visible, 3)
}

func TestSearch_RefreshRemoteRefetchesQuery(t *testing.T) {
	src := &instantSearcher{results: map[string]omdb.SearchResult{
		"alien": found(items("tt2", "Alien")),
	}}
	c := newCoordinator(t, src, Options{})

	c.SetQuery("alien")
	c.Wait()
	c.Refresh()
	c.Wait()

	assert.Equal(t, []string{"alien", "alien"}, src.seen())
	assert.Equal(t, []bool{false, true}, src.freshFlags())
}

func TestSearch_SubscribeReceivesUpdates(t *testing.T) {
	src := &instantSearcher{results: map[string]omdb.SearchResult{
		"bat": found(items("tt1", "Batman")),
	}}
	c := newCoordinator(t, src, Options{})
	updates, unsubscribe := c.Subscribe()
	defer unsubscribe()

	c.SetQuery("bat")
	c.Wait()

	var last Snapshot
	require.Eventually(t, func() bool {
		select {
		case last = <-updates:
		default:
		}
		return last.Phase == state.Success
	}, time.Second, time.Millisecond)
	assert.Equal(t, items("tt1", "Batman"), last.Results)
}

func TestSearch_CloseIgnoresLaterCalls(t *testing.T) {
	src := &instantSearcher{}
	c := New(context.Background(), src, Options{Logger: zerolog.Nop()})
	c.Close()
	c.SetQuery("bat")
	c.Wait()
	assert.Empty(t, src.seen())
	assert.Equal(t, state.Idle, c.Snapshot().Phase)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Local ")
	require.NoError(t, err)
	assert.Equal(t, ModeLocal, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeRemote, m)

	_, err = ParseMode("both")
	assert.Error(t, err)
}
