// Package asyncexec runs a unit of provider work on a worker goroutine
// so the calling goroutine can animate progress while it waits
// (spec.md §4.9 / C9). From the Converger's perspective Execute is
// synchronous — no two providers ever run concurrently in one run
// (spec.md §5 "Ordering guarantees").
package asyncexec

import "context"

// Execute runs f(ctx) on a dedicated goroutine and blocks the calling
// goroutine until it completes, returning f's result. ctx is threaded
// through to f for the provider's own use (HTTP timeouts, process
// signals); Execute itself never abandons the worker early — per
// spec.md §4.9, a resource's work is allowed to run to completion even
// if the process is being torn down, so there is no kernel-level
// timeout or forced cancellation here.
func Execute[R any](ctx context.Context, f func(ctx context.Context) R) R {
	done := make(chan R, 1)
	go func() {
		done <- f(ctx)
	}()
	return <-done
}
