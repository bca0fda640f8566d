// Package navigator abstracts driving the secondary surface to a URL and
// enforces the minimum spacing between navigations. The wait slot is
// reserved under lock and slept outside it, so concurrent callers queue
// up instead of racing for the same gap.
package navigator
