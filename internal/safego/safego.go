// Package safego launches goroutines that survive their own panics.
package safego

import "log/slog"

// Go runs fn in a new goroutine, recovering and logging any panic instead of
// letting it take down the process. Use it for fire-and-forget work such as
// the metrics side-channel server, where a panic would otherwise kill the
// goroutine silently.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("recovered panic in background goroutine", "panic", r)
			}
		}()
		fn()
	}()
}
