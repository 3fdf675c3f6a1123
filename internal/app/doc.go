// Package app is Marquee's composition root.
//
// Run loads and validates the configuration, opens the log file, builds the
// object graph and hands it to the terminal UI:
//
//	omdb.Client -> catalog.Repository (+ cache.Store) -> search/detail coordinators -> ui
//
// The cache backend is chosen by configuration: "off" (every lookup goes to
// the network), "memory" (process lifetime) or "sqlite" (persisted across
// runs, expired rows purged at startup).
//
// On start the search coordinator is primed: in local filter mode the seed
// collection is fetched, then the initial query (flag or the last query
// saved in preferences) is applied.
package app
