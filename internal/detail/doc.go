// Package detail owns the state behind the detail screen: which title is
// open, its record, and the lifecycle of the lookup that produced it.
//
// Load is idempotent: asking for the id that is already loaded, or already
// loading, does nothing. Reload always fetches. A lookup the catalog answers
// with "no match" ends in the NotFound phase, which is not an error; a
// transport or decode failure ends in Failure and keeps whatever record was
// shown before.
package detail
