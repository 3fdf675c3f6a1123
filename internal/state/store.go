package state

import (
	"fmt"
	"sync"
)

// Phase tags which variant of a fetch lifecycle a snapshot is in.
type Phase int

const (
	// Idle means nothing has been requested, or the request was cleared.
	Idle Phase = iota
	// Loading means a fetch is in flight.
	Loading
	// Success means the last fetch returned a payload.
	Success
	// Empty means a search completed with zero matches.
	Empty
	// NotFound means a detail lookup completed without a record.
	NotFound
	// Failure means the last fetch failed; the error is published alongside.
	Failure
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Empty:
		return "empty"
	case NotFound:
		return "not_found"
	case Failure:
		return "failure"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Settled reports whether the phase is the outcome of a completed fetch.
func (p Phase) Settled() bool {
	return p == Success || p == Empty || p == NotFound || p == Failure
}

// Store coordinates concurrent updates to a published snapshot of type S.
// Readers always get a copy produced by the clone func, so callers may keep
// or modify what they receive.
type Store[S any] struct {
	mu       sync.RWMutex
	snapshot S
	clone    func(S) S
	subs     map[int]chan S
	nextSub  int
}

// NewStore returns a store holding initial. A nil clone copies by value.
func NewStore[S any](initial S, clone func(S) S) *Store[S] {
	if clone == nil {
		clone = func(s S) S { return s }
	}
	return &Store[S]{
		snapshot: initial,
		clone:    clone,
		subs:     make(map[int]chan S),
	}
}

// Update applies fn to the stored snapshot under the write lock and publishes
// the result to subscribers. It returns a copy of the new snapshot.
func (s *Store[S]) Update(fn func(*S)) S {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.snapshot)
	for _, ch := range s.subs {
		offer(ch, s.clone(s.snapshot))
	}
	return s.clone(s.snapshot)
}

// Snapshot returns a copy of the current snapshot.
func (s *Store[S]) Snapshot() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clone(s.snapshot)
}

// Subscribe returns a channel that receives the latest snapshot after every
// update. Slow readers only ever see the most recent value. The returned func
// unsubscribes and closes the channel.
func (s *Store[S]) Subscribe() (<-chan S, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan S, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// offer replaces any unread value in ch with v.
func offer[S any](ch chan S, v S) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

// CloneError returns a distinct error value wrapping err, so snapshots never
// share an error instance with the producer.
func CloneError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w", err)
}
