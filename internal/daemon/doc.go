// Package daemon runs segue's background service: the HTTP API the
// surfaces post display events to, the websocket stream that carries
// rating updates and navigation commands back, and the file lock that
// enforces a single running instance.
package daemon
