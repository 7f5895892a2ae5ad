// Package async runs functions in goroutines and hands their results
// back over channels.
package async

// Promise runs f in its own goroutine. The channel is buffered so the
// goroutine finishes even when nobody waits for the result.
func Promise[R any](f func() R) <-chan R {
	out := make(chan R, 1)
	go func() {
		out <- f()
	}()
	return out
}
