package detail

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

// Fetcher looks up one detail record by IMDb id or title. With fresh set,
// cached answers are bypassed.
type Fetcher interface {
	Detail(ctx context.Context, idOrTitle string, fresh bool) (omdb.DetailResult, error)
}

// Snapshot is the published detail state.
type Snapshot struct {
	ID        string
	Record    omdb.DetailRecord
	HasRecord bool
	IsLoading bool
	Err       error
	Phase     state.Phase
	UpdatedAt time.Time
}

// Message returns the inline status text for the snapshot.
func (s Snapshot) Message() string {
	switch s.Phase {
	case state.NotFound:
		return "Not found"
	case state.Failure:
		if s.Err != nil {
			return s.Err.Error()
		}
		return "Lookup failed"
	}
	return ""
}

func cloneSnapshot(s Snapshot) Snapshot {
	dup := s
	if s.Record.Ratings != nil {
		dup.Record.Ratings = append([]omdb.Rating(nil), s.Record.Ratings...)
	}
	dup.Err = state.CloneError(s.Err)
	return dup
}

// Coordinator serializes detail loads into snapshots. All methods are safe
// for concurrent use.
type Coordinator struct {
	base    context.Context
	fetcher Fetcher
	log     zerolog.Logger
	store   *state.Store[Snapshot]
	now     func() time.Time

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// New returns an idle coordinator whose lookups run under ctx.
func New(ctx context.Context, fetcher Fetcher, log zerolog.Logger) *Coordinator {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Coordinator{
		base:    ctx,
		fetcher: fetcher,
		log:     log,
		store:   state.NewStore(Snapshot{Phase: state.Idle}, cloneSnapshot),
		now:     time.Now,
	}
}

// Snapshot returns the current state.
func (c *Coordinator) Snapshot() Snapshot { return c.store.Snapshot() }

// Subscribe delivers the latest snapshot after every change.
func (c *Coordinator) Subscribe() (<-chan Snapshot, func()) { return c.store.Subscribe() }

// Load opens id. A blank id clears the coordinator.
func (c *Coordinator) Load(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	id = strings.TrimSpace(id)
	if id == "" {
		c.gen++
		c.cancelLocked()
		c.store.Update(func(s *Snapshot) { *s = Snapshot{Phase: state.Idle} })
		return
	}
	cur := c.store.Snapshot()
	if cur.ID == id && (cur.IsLoading || cur.Phase == state.Success || cur.Phase == state.NotFound) {
		return
	}
	c.startLocked(id, false)
}

// Reload fetches the current id again from the remote catalog, even when it
// is already loaded.
func (c *Coordinator) Reload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	id := c.store.Snapshot().ID
	if id == "" {
		return
	}
	c.startLocked(id, true)
}

// Wait blocks until no lookup is in flight.
func (c *Coordinator) Wait() { c.wg.Wait() }

// Close cancels the lookup in flight and waits for it. Later calls are
// ignored.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.gen++
	c.cancelLocked()
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Coordinator) cancelLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Coordinator) startLocked(id string, fresh bool) {
	c.gen++
	gen := c.gen
	c.cancelLocked()
	c.store.Update(func(s *Snapshot) {
		s.ID = id
		s.IsLoading = true
		s.Err = nil
		s.Phase = state.Loading
	})

	ctx, cancel := context.WithCancel(c.base)
	c.cancel = cancel
	log := c.log.With().
		Str("fetch_id", uuid.NewString()).
		Str("id", id).
		Uint64("generation", gen).
		Bool("fresh", fresh).
		Logger()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		log.Debug().Msg("detail lookup started")
		res, err := c.fetcher.Detail(ctx, id, fresh)
		c.complete(gen, res, err, log)
	}()
}

func (c *Coordinator) complete(gen uint64, res omdb.DetailResult, err error, log zerolog.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		log.Debug().Err(err).Msg("discarding superseded detail result")
		return
	}
	c.cancel = nil

	c.store.Update(func(s *Snapshot) {
		s.IsLoading = false
		s.UpdatedAt = c.now()
		switch {
		case err != nil:
			s.Err = state.CloneError(err)
			s.Phase = state.Failure
		case !res.Found:
			s.Record = omdb.DetailRecord{}
			s.HasRecord = false
			s.Err = nil
			s.Phase = state.NotFound
		default:
			s.Record = res.Record
			s.HasRecord = true
			s.Err = nil
			s.Phase = state.Success
		}
	})

	switch {
	case err != nil:
		log.Warn().Err(err).Msg("detail lookup failed")
	case !res.Found:
		log.Info().Msg("detail not found")
	default:
		log.Debug().Msg("detail lookup completed")
	}
}
