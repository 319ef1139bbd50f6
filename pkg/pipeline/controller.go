package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Worker is one of the Demuxer/Decoder goroutine bodies the Controller
// joins. Demuxer.Run and Decoder.Run satisfy this directly; Presenter.Run
// takes no context (it owns the display's main-thread affinity instead)
// and is called directly by cmd/videopipe/main.go, not through Go.
type Worker func(ctx context.Context) error

// Controller is the top-level orchestrator from spec.md §3: owns the
// cancellation signal the Rust original expressed as Arc<bool>/Weak<bool>,
// mapped here to context.Context + CancelCauseFunc (spec.md §9 permits an
// alternative to the weak-reference model), and joins worker goroutines
// with golang.org/x/sync/errgroup in place of the original's
// Vec<JoinHandle<Result<...>>> manual-join loop.
type Controller struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	group  *errgroup.Group
}

// NewController derives a cancellable context from parent and an
// errgroup bound to it: the first worker to return a non-nil error
// cancels ctx for all the others.
func NewController(parent context.Context) *Controller {
	gctx, cancel := context.WithCancelCause(parent)
	g, ctx := errgroup.WithContext(gctx)
	return &Controller{ctx: ctx, cancel: cancel, group: g}
}

// Context returns the Controller's cancellable context, to be passed to
// each worker's Run method and polled by any other cooperative-shutdown
// consumer.
func (c *Controller) Context() context.Context { return c.ctx }

// Go starts worker on its own goroutine, joined by Wait.
func (c *Controller) Go(worker Worker) {
	c.group.Go(func() error {
		return worker(c.ctx)
	})
}

// Stop requests cooperative shutdown of every running worker by
// cancelling ctx; it does not block, so call Wait to join the workers.
// cause is surfaced from
// context.Cause(ctx) inside workers that check it.
func (c *Controller) Stop(cause error) {
	c.cancel(cause)
}

// Wait blocks until every worker started with Go has returned, and
// returns the first non-nil error among them (or nil if every worker
// completed cleanly). This is the bounded-shutdown join point spec.md
// §7 requires: once called, it returns as soon as every worker observes
// cancellation and unwinds — it doesn't itself wait on a fixed timeout.
func (c *Controller) Wait() error {
	return c.group.Wait()
}
