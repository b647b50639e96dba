// Package ui renders discovery, chat, update and monitor output for the
// terminal.
//
// RunDiscovery drives a small Bubble Tea program: a spinner while the
// resolver works, replaced by the resolved endpoint and its source badge.
// The Render helpers return styled single-shot strings for commands that
// print and exit. Colors come from a named Theme (Nightfox, Kanagawa or
// Slate).
package ui
