// Package ui is Marquee's Bubble Tea terminal interface.
//
// The UI owns no catalog state. It renders the snapshots published by the
// search and detail coordinators and forwards user intents back to them:
// query edits become SearchController.SetQuery, opening a row becomes
// DetailController.Load. Snapshots arrive as tea.Msg values through each
// coordinator's subscription channel.
//
// # Views
//
//   - Search: query input, status line and result list.
//   - Detail: the selected record in a scrollable viewport.
//   - Help overlay (f1) and log overlay (ctrl+l), which tails the
//     application log file through package logtail.
//
// Fields the catalog left empty are rendered as "N/A". The placeholder
// exists only here; the data model keeps them absent.
//
// # Themes
//
// Three palettes are available (Nightfox, Kanagawa, Slate) and ctrl+t cycles
// them. The chosen theme and last query are saved with package prefs.
package ui
