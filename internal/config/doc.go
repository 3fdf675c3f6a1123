// Package config loads Marquee's TOML configuration.
//
// Resolution order:
//
//  1. The path passed to Load, when not blank.
//  2. ~/.config/marquee/config.toml otherwise.
//  3. Built-in defaults when the file does not exist.
//
// Fields left blank in the file keep their defaults. Durations are Go
// duration strings ("300ms", "10m"). Paths may start with "~". The
// MARQUEE_API_KEY environment variable replaces api_key when set.
//
// Example:
//
//	api_key = "abcd1234"
//	filter_mode = "remote"
//	debounce = "250ms"
//	requests_per_second = 5
//
//	[cache]
//	backend = "sqlite"
//	ttl = "1h"
//
//	[log]
//	level = "debug"
//
// Load never validates. Validate reports every invalid field using the TOML
// key, for example "config: cache.backend: oneof=off memory sqlite".
//
// request_timeout defaults to zero, meaning requests are not bounded in
// time: a hung connection keeps the loading indicator up until the user
// issues another query. Set it to opt in to a deadline.
package config
