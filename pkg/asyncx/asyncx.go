// Package asyncx holds the small fire-and-forget helpers used for best-effort
// side effects such as mail dispatch. Failures inside the goroutine must be
// handled (logged) by the function itself.
package asyncx

import "context"

// Do runs fn in its own goroutine and does not wait for it.
func Do(fn func()) {
	go fn()
}

// DoCtx runs fn in its own goroutine unless ctx is already done. The goroutine
// receives a detached context so it survives the request that spawned it.
func DoCtx(ctx context.Context, fn func(context.Context)) {
	select {
	case <-ctx.Done():
		return
	default:
	}
	go fn(context.WithoutCancel(ctx))
}
