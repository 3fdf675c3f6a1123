package cache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process Store backed by go-cache. Entries expire after the
// configured TTL and a sweeper purges them periodically until Close.
type Memory struct {
	items *gocache.Cache
	now   func() time.Time

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewMemory returns a Memory store. A ttl <= 0 never expires entries and
// runs no sweeper.
func NewMemory(ttl time.Duration) *Memory {
	expiration := gocache.NoExpiration
	if ttl > 0 {
		expiration = ttl
	}
	m := &Memory{
		items: gocache.New(expiration, 0),
		now:   time.Now,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	if ttl > 0 {
		go m.sweep(2 * ttl)
	} else {
		close(m.done)
	}
	return m
}

func (m *Memory) sweep(interval time.Duration) {
	defer close(m.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.items.DeleteExpired()
		case <-m.stop:
			return
		}
	}
}

func (m *Memory) Read(key string) (Entry, bool) {
	v, ok := m.items.Get(key)
	if !ok {
		return Entry{}, false
	}
	entry, ok := v.(Entry)
	if !ok {
		return Entry{}, false
	}
	return clone(entry), true
}

func (m *Memory) Write(entries ...Entry) error {
	for _, e := range entries {
		if e.Key == "" {
			return ErrEmptyKey
		}
		if e.FetchedAt.IsZero() {
			e.FetchedAt = m.now()
		}
		m.items.SetDefault(e.Key, clone(e))
	}
	return nil
}

// Len reports the number of stored entries, including expired ones not yet
// purged.
func (m *Memory) Len() int {
	return m.items.ItemCount()
}

// Close stops the sweeper and drops every entry. It is safe to call more
// than once.
func (m *Memory) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
	m.items.Flush()
	return nil
}
