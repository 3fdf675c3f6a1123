// Package search owns the query and result-list state behind the search
// screen.
//
// A Coordinator accepts query edits, issues catalog fetches, and publishes
// Snapshot values through a state.Store. Every fetch carries a generation
// number; only the most recently issued fetch may publish, so a slow answer
// for an old query never replaces the answer for the current one. Superseded
// fetches are cancelled through their context.
//
// Two filtering strategies exist and a Coordinator uses exactly one:
//
//   - ModeRemote: each query change triggers a fetch (optionally debounced).
//   - ModeLocal: Refresh fetches the seed query once; query changes only
//     re-filter that collection with Filter.
//
// A blank query never reaches the catalog. It clears the results and returns
// the coordinator to the idle phase.
package search
