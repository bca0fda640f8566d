// Package session tracks what each surface is currently showing and the
// one-shot suppression flags that keep the two surfaces from syncing each
// other in a loop. The tracker is the single source of truth the
// orchestrator consults before deciding whether a display event needs a
// navigation.
package session
