package pregel

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// workerGroup runs one task per partition on an errgroup limited to the
// configured concurrency. A panic escaping a task is converted to an error
// so a bug in one partition fails the superstep instead of the process.
type workerGroup struct {
	group *errgroup.Group
}

func newWorkerGroup(ctx context.Context, limit int) (*workerGroup, context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	return &workerGroup{group: g}, ctx
}

func (wg *workerGroup) Go(fn func() error) {
	wg.group.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("worker panic recovered",
					"panic", r,
					"stack_trace", string(debug.Stack()),
				)
				err = fmt.Errorf("worker panic: %v", r)
			}
		}()
		return fn()
	})
}

// Wait blocks until every task returned and reports the first error.
func (wg *workerGroup) Wait() error {
	return wg.group.Wait()
}

// protect runs a user hook, converting both returned errors and panics into
// an *Error tagged with the hook, superstep and node.
func protect(hook string, superstep int, node int64, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("panic: %v", r)
			}
			err = userError(hook, superstep, node, cause)
		}
	}()
	if err := fn(); err != nil {
		return userError(hook, superstep, node, err)
	}
	return nil
}
