// Package catalog answers search and detail lookups from the local cache when
// it can and from the remote catalog when it must.
package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/five82/marquee/internal/cache"
	"github.com/five82/marquee/internal/omdb"
)

// Repository is a read-through cache in front of an omdb.Catalog. Identical
// concurrent lookups share one remote request.
type Repository struct {
	client omdb.Catalog
	store  cache.Store
	group  singleflight.Group
	log    zerolog.Logger

	mu      sync.Mutex
	flights map[string]*flight
}

// flight is the shared remote request for one key. It is cancelled once
// every caller waiting on it has gone.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// New returns a repository. A nil store disables caching.
func New(client omdb.Catalog, store cache.Store, log zerolog.Logger) *Repository {
	return &Repository{
		client:  client,
		store:   store,
		log:     log,
		flights: make(map[string]*flight),
	}
}

// Search returns the title search result for query. With fresh set the
// cache is not consulted, but the answer is still written back.
func (r *Repository) Search(ctx context.Context, query string, fresh bool) (omdb.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return omdb.SearchResult{}, omdb.ErrEmptyQuery
	}
	key := cache.SearchKey(query)
	if entry, ok := r.read(key, fresh); ok {
		r.log.Debug().Str("query", query).Msg("search served from cache")
		return searchFromEntry(entry), nil
	}

	v, err := r.share(ctx, "search", key, func(ctx context.Context) (any, error) {
		res, err := r.client.LookupByTitle(ctx, query)
		if err != nil {
			return nil, err
		}
		r.write(cache.Entry{Key: key, Items: res.Items, TotalCount: res.TotalCount})
		return res, nil
	})
	if err != nil {
		return omdb.SearchResult{}, err
	}
	return cloneSearch(v.(omdb.SearchResult)), nil
}

// Detail returns the detail record for an IMDb id or a title. fresh works as
// for Search.
func (r *Repository) Detail(ctx context.Context, idOrTitle string, fresh bool) (omdb.DetailResult, error) {
	idOrTitle = strings.TrimSpace(idOrTitle)
	if idOrTitle == "" {
		return omdb.DetailResult{}, omdb.ErrEmptyQuery
	}
	key := cache.DetailKey(idOrTitle)
	if entry, ok := r.read(key, fresh); ok {
		r.log.Debug().Str("id", idOrTitle).Msg("detail served from cache")
		return detailFromEntry(entry), nil
	}

	v, err := r.share(ctx, "detail", key, func(ctx context.Context) (any, error) {
		res, err := r.client.LookupByIdentifier(ctx, idOrTitle)
		if err != nil {
			return nil, err
		}
		entries := []cache.Entry{{Key: key}}
		if res.Found {
			rec := res.Record
			entries[0].Record = &rec
			if res.Record.ID != "" {
				if idKey := cache.DetailKey(res.Record.ID); idKey != key {
					entries = append(entries, cache.Entry{Key: idKey, Record: &rec})
				}
			}
		}
		r.write(entries...)
		return res, nil
	})
	if err != nil {
		return omdb.DetailResult{}, err
	}
	return cloneDetail(v.(omdb.DetailResult)), nil
}

// share runs fetch once per key across concurrent callers. The fetch is
// detached from any single caller's cancellation and each caller stops
// waiting when its own ctx ends. When the last caller leaves, the fetch is
// cancelled and forgotten so the next identical lookup starts over.
func (r *Repository) share(ctx context.Context, op, key string, fetch func(context.Context) (any, error)) (any, error) {
	r.mu.Lock()
	f, ok := r.flights[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		r.flights[key] = f
	}
	f.waiters++
	ch := r.group.DoChan(key, func() (any, error) {
		return fetch(f.ctx)
	})
	r.mu.Unlock()

	select {
	case res := <-ch:
		r.leave(key, f, false)
		if res.Shared {
			r.log.Debug().Str("key", key).Msg("lookup shared with concurrent caller")
		}
		return res.Val, res.Err
	case <-ctx.Done():
		r.leave(key, f, true)
		return nil, &omdb.TransportError{Op: op, Err: ctx.Err()}
	}
}

func (r *Repository) leave(key string, f *flight, abandoned bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	if r.flights[key] == f {
		delete(r.flights, key)
	}
	f.cancel()
	if abandoned {
		r.group.Forget(key)
		r.log.Debug().Str("key", key).Msg("lookup abandoned by every caller")
	}
}

func (r *Repository) read(key string, fresh bool) (cache.Entry, bool) {
	if r.store == nil || fresh {
		return cache.Entry{}, false
	}
	return r.store.Read(key)
}

func (r *Repository) write(entries ...cache.Entry) {
	if r.store == nil {
		return
	}
	if err := r.store.Write(entries...); err != nil && !errors.Is(err, cache.ErrEmptyKey) {
		r.log.Warn().Err(err).Str("key", entries[0].Key).Msg("cache write failed")
	}
}

func searchFromEntry(e cache.Entry) omdb.SearchResult {
	if len(e.Items) == 0 {
		return omdb.SearchResult{Status: omdb.StatusEmpty}
	}
	return omdb.SearchResult{
		Status:     omdb.StatusFound,
		Items:      e.Items,
		TotalCount: e.TotalCount,
	}
}

func detailFromEntry(e cache.Entry) omdb.DetailResult {
	if e.Record == nil {
		return omdb.DetailResult{}
	}
	return omdb.DetailResult{Found: true, Record: *e.Record}
}

// cloneSearch gives each caller of a shared lookup its own slice.
func cloneSearch(res omdb.SearchResult) omdb.SearchResult {
	if res.Items != nil {
		res.Items = append([]omdb.ResultItem(nil), res.Items...)
	}
	return res
}

func cloneDetail(res omdb.DetailResult) omdb.DetailResult {
	if res.Record.Ratings != nil {
		res.Record.Ratings = append([]omdb.Rating(nil), res.Record.Ratings...)
	}
	return res
}
