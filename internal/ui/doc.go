// Package ui provides the terminal variant browser of varlens.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program over a variants.Session. It never fetches
// directly: every keypress becomes a session action (load more, select,
// filter, refresh), and every render reads the session's derived nodes.
// The session notifies on every change, and the model turns those
// notifications into messages through a one-slot channel so a burst of cache
// writes costs one re-read:
//
//	Session.Subscribe ──→ changes (cap 1) ──→ sessionChangedMsg ──→ refresh()
//	key press ──→ Session action ──→ refresh()
//	tea.FocusMsg ──→ Session.Sync(TriggerFocus)
//
// # Package Structure
//
//   - app.go: Model, Update loop, key handling, Run
//   - table.go: variant table, skeleton rows, filter presets, titled boxes
//   - detail.go: detail pane with parameters and revision history
//   - header.go: status bar and command hints
//   - modal.go: search and deep-link prompts
//   - help.go, keys.go: key bindings and the help overlay
//   - theme.go, style_helpers.go: palettes and background-safe rendering
//
// # Loading States
//
// While the list is loading the table shows skeleton placeholders shaped
// like real rows. In windowed mode, moving past the last row (or pressing n)
// loads the next page and placeholders trail the loaded rows until it
// arrives. A failed list renders the error in place of rows.
//
// # Preferences
//
// Theme cycling (T) and page-size changes (+/-) are saved to prefs.toml.
package ui
