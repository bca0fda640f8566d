// Package logging builds the slog loggers used across segue. The console
// handler prints compact single-line output with the component name
// folded into the message prefix; the JSON handler emits machine-readable
// logs for file output.
package logging
