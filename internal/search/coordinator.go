package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/five82/marquee/internal/omdb"
	"github.com/five82/marquee/internal/state"
)

// Searcher runs one title search. With fresh set, cached answers are
// bypassed.
type Searcher interface {
	Search(ctx context.Context, query string, fresh bool) (omdb.SearchResult, error)
}

// Options configures a Coordinator.
type Options struct {
	Mode Mode
	// Debounce delays remote fetches until the query has been stable this
	// long. Zero fetches on every change.
	Debounce time.Duration
	// SeedQuery is the collection fetched by Refresh in ModeLocal.
	SeedQuery string
	Logger    zerolog.Logger
}

// Snapshot is the published search state.
type Snapshot struct {
	// Query is the text the user last entered.
	Query string
	// Results is the item list of the last completed fetch, in server order.
	Results []omdb.ResultItem
	// Visible is what the list should show: Results filtered by Query in
	// ModeLocal, Results itself in ModeRemote.
	Visible      []omdb.ResultItem
	TotalCount   int
	FetchedQuery string
	IsLoading    bool
	Err          error
	Phase        state.Phase
	UpdatedAt    time.Time
}

// Message returns the inline status text for the snapshot, or "" when the
// list speaks for itself.
func (s Snapshot) Message() string {
	switch s.Phase {
	case state.Empty:
		return "No results"
	case state.Failure:
		if s.Err != nil {
			return s.Err.Error()
		}
		return "Search failed"
	case state.Success:
		if len(s.Visible) == 0 {
			return "No results"
		}
	}
	return ""
}

func cloneSnapshot(s Snapshot) Snapshot {
	dup := s
	if s.Results != nil {
		dup.Results = append([]omdb.ResultItem(nil), s.Results...)
	}
	if s.Visible != nil {
		dup.Visible = append([]omdb.ResultItem(nil), s.Visible...)
	}
	dup.Err = state.CloneError(s.Err)
	return dup
}

// Coordinator serializes query edits and fetch completions into snapshots.
// All methods are safe for concurrent use.
type Coordinator struct {
	base   context.Context
	source Searcher
	opts   Options
	log    zerolog.Logger
	store  *state.Store[Snapshot]
	now    func() time.Time

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	timer  *time.Timer
	closed bool
	wg     sync.WaitGroup
}

// New returns an idle coordinator. Fetches run under ctx; cancelling it
// fails any fetch in flight.
func New(ctx context.Context, source Searcher, opts Options) *Coordinator {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Coordinator{
		base:   ctx,
		source: source,
		opts:   opts,
		log:    opts.Logger,
		store:  state.NewStore(Snapshot{Phase: state.Idle}, cloneSnapshot),
		now:    time.Now,
	}
}

// Mode reports the filtering strategy in use.
func (c *Coordinator) Mode() Mode { return c.opts.Mode }

// Snapshot returns the current state.
func (c *Coordinator) Snapshot() Snapshot { return c.store.Snapshot() }

// Subscribe delivers the latest snapshot after every change.
func (c *Coordinator) Subscribe() (<-chan Snapshot, func()) { return c.store.Subscribe() }

// SetQuery records a query edit. In ModeRemote it triggers a fetch for text
// (after the debounce period when one is configured). In ModeLocal it only
// re-filters the current results.
func (c *Coordinator) SetQuery(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	if c.opts.Mode == ModeLocal {
		c.store.Update(func(s *Snapshot) {
			s.Query = text
			s.Visible = Filter(s.Results, text)
		})
		return
	}

	trimmed := strings.TrimSpace(text)
	if c.opts.Debounce <= 0 || trimmed == "" {
		c.searchLocked(text, false)
		return
	}

	gen := c.supersedeLocked()
	c.store.Update(func(s *Snapshot) {
		s.Query = text
		s.IsLoading = true
		s.Err = nil
		s.Phase = state.Loading
	})
	c.wg.Add(1)
	c.timer = time.AfterFunc(c.opts.Debounce, func() {
		defer c.wg.Done()
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || gen != c.gen {
			return
		}
		c.timer = nil
		c.startLocked(gen, trimmed, false)
	})
}

// Search records text as the query and fetches it immediately, in either
// mode.
func (c *Coordinator) Search(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.searchLocked(text, false)
}

// Refresh fetches again without changing the query, bypassing cached
// answers: the current query in ModeRemote, the seed query in ModeLocal.
func (c *Coordinator) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.opts.Mode == ModeRemote {
		c.searchLocked(c.store.Snapshot().Query, true)
		return
	}
	seed := strings.TrimSpace(c.opts.SeedQuery)
	if seed == "" {
		c.log.Warn().Msg("local filter mode without a seed query; nothing to fetch")
		return
	}
	gen := c.supersedeLocked()
	c.store.Update(func(s *Snapshot) {
		s.IsLoading = true
		s.Err = nil
		s.Phase = state.Loading
	})
	c.startLocked(gen, seed, true)
}

// Wait blocks until no fetch or pending debounce is outstanding.
func (c *Coordinator) Wait() { c.wg.Wait() }

// Close cancels outstanding work and waits for it to finish. Later calls to
// the coordinator are ignored.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.supersedeLocked()
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Coordinator) searchLocked(text string, fresh bool) {
	gen := c.supersedeLocked()
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		c.store.Update(func(s *Snapshot) {
			s.Query = text
			s.Results = nil
			s.Visible = nil
			s.TotalCount = 0
			s.FetchedQuery = ""
			s.IsLoading = false
			s.Err = nil
			s.Phase = state.Idle
		})
		return
	}
	c.store.Update(func(s *Snapshot) {
		s.Query = text
		s.IsLoading = true
		s.Err = nil
		s.Phase = state.Loading
	})
	c.startLocked(gen, trimmed, fresh)
}

// supersedeLocked invalidates the fetch or debounce in flight and returns
// the new generation.
func (c *Coordinator) supersedeLocked() uint64 {
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.timer != nil {
		if c.timer.Stop() {
			c.wg.Done()
		}
		c.timer = nil
	}
	return c.gen
}

func (c *Coordinator) startLocked(gen uint64, query string, fresh bool) {
	ctx, cancel := context.WithCancel(c.base)
	c.cancel = cancel
	log := c.log.With().
		Str("fetch_id", uuid.NewString()).
		Str("query", query).
		Uint64("generation", gen).
		Bool("fresh", fresh).
		Logger()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		log.Debug().Msg("search started")
		res, err := c.source.Search(ctx, query, fresh)
		c.complete(gen, query, res, err, log)
	}()
}

func (c *Coordinator) complete(gen uint64, query string, res omdb.SearchResult, err error, log zerolog.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		log.Debug().Err(err).Msg("discarding superseded search result")
		return
	}
	c.cancel = nil

	snap := c.store.Update(func(s *Snapshot) {
		s.IsLoading = false
		s.FetchedQuery = query
		s.UpdatedAt = c.now()
		if err != nil {
			s.Results = nil
			s.Visible = nil
			s.TotalCount = 0
			s.Err = state.CloneError(err)
			s.Phase = state.Failure
			return
		}
		s.Err = nil
		s.Results = res.Items
		s.TotalCount = res.TotalCount
		s.Visible = c.visible(res.Items, s.Query)
		if len(res.Items) == 0 {
			s.Phase = state.Empty
		} else {
			s.Phase = state.Success
		}
	})

	if err != nil {
		log.Warn().Err(err).Msg("search failed")
		return
	}
	log.Debug().Int("results", len(snap.Results)).Str("phase", snap.Phase.String()).Msg("search completed")
}

func (c *Coordinator) visible(results []omdb.ResultItem, query string) []omdb.ResultItem {
	if c.opts.Mode == ModeLocal {
		return Filter(results, query)
	}
	return results
}
