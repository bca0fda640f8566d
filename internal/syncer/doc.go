// Package syncer orchestrates cross-surface synchronization: display
// events from the primary surface (the music player) and the secondary
// surface (the rating site browser) flow in, rating updates and
// navigation commands flow out.
//
// The anti-ping-pong rules live here. Before any programmatic navigation
// the orchestrator pre-writes the target identity into the session
// tracker and arms a one-shot suppression flag, so the display event the
// navigation produces on the other surface is recognized as an echo and
// swallowed instead of bouncing a navigation back.
package syncer
