package fabriclog

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultRunner returns a runner sized to the machine, backed by errgroup.Group.
func DefaultRunner(ctx context.Context) *GroupRunner {
	return NewLimitedRunner(ctx, runtime.NumCPU())
}

// NewLimitedRunner creates a runner with bounded concurrency.
func NewLimitedRunner(ctx context.Context, maxConcurrency int) *GroupRunner {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrency)
	return &GroupRunner{ctx: egCtx, eg: eg}
}

// GroupRunner is a Runner whose tasks share a context cancelled on the first error.
type GroupRunner struct {
	ctx context.Context
	eg  *errgroup.Group
}

// Context is cancelled as soon as one task fails.
func (r *GroupRunner) Context() context.Context { return r.ctx }

func (r *GroupRunner) Go(fn func() error) { r.eg.Go(fn) }

func (r *GroupRunner) Wait() error { return r.eg.Wait() }
