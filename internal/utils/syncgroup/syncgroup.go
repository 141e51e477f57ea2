package syncgroup

import (
	"context"

	"golang.org/x/sync/errgroup"
)

type (
	// Group runs functions concurrently and returns the first error, cancelling the shared context.
	Group interface {
		Go(fn func() error)
		Wait() error
	}

	Option   func(group *groupImpl)
	FilterFn func(err error) error

	groupImpl struct {
		group  *errgroup.Group
		filter FilterFn
	}
)

func New(ctx context.Context, opts ...Option) (Group, context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	group := &groupImpl{
		group:  g,
		filter: nopFilter,
	}

	for _, opt := range opts {
		opt(group)
	}

	return group, ctx
}

// WithThrottling bounds the number of functions running at the same time. Go blocks while the limit is reached.
func WithThrottling(limit int) Option {
	return func(group *groupImpl) {
		if limit > 0 {
			group.group.SetLimit(limit)
		}
	}
}

// WithFilter maps each error before it is reported; returning nil swallows it.
func WithFilter(filter FilterFn) Option {
	return func(group *groupImpl) {
		group.filter = filter
	}
}

func (g *groupImpl) Go(fn func() error) {
	g.group.Go(func() error {
		return g.filter(fn())
	})
}

func (g *groupImpl) Wait() error {
	return g.group.Wait()
}

func nopFilter(err error) error {
	return err
}
