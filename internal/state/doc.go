// Package state provides the published-snapshot store shared by Marquee's
// coordinators and the UI.
//
// # Overview
//
// A coordinator owns one piece of reactive state (the search results, the
// open detail record) and the asynchronous fetch that produces it. Store is
// where that state is published: the coordinator writes through Update, the
// UI reads through Snapshot or receives values from Subscribe.
//
//	Producer (coordinator):        Consumer (UI):
//	┌──────────────────┐          ┌──────────────────┐
//	│ fetch completes  │          │                  │
//	│      ↓           │          │                  │
//	│ store.Update()   │─────────→│ <-Subscribe()    │
//	│                  │ (mutex)  │ store.Snapshot() │
//	└──────────────────┘          └──────────────────┘
//
// # Concurrency Model
//
// Update takes the write lock for the duration of the mutation, so readers
// never observe a half-applied transition (for example results replaced while
// the loading flag is still set). Snapshot takes the read lock and returns a
// copy made by the store's clone func.
//
// Subscribers get a buffered channel of size one. When a reader falls behind,
// the unread value is replaced by the newer one: consumers render the latest
// state, not every intermediate state.
//
// # Phases
//
// Phase tags the fetch lifecycle: Idle, Loading, and the settled outcomes
// Success, Empty, NotFound and Failure. Empty and NotFound are success-shaped:
// they carry no error.
package state
