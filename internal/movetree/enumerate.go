package movetree

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

var ErrNegativeDepth = errors.New("negative depth")

type Option func(*options)

type options struct {
	workers int
}

// WithWorkers bounds how many first-ply subtrees are expanded at once.
// Values below 1 fall back to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// Builder expands a position into a Forest. First-ply subtrees are built
// concurrently, each from its own successor position; everything below the
// first ply is expanded sequentially by the goroutine that owns the subtree.
type Builder[P, M any] struct {
	rules   Rules[P, M]
	workers int
}

func NewBuilder[P, M any](rules Rules[P, M], opts ...Option) *Builder[P, M] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = runtime.GOMAXPROCS(0)
	}
	return &Builder[P, M]{rules: rules, workers: o.workers}
}

// Workers is the resolved bound on concurrent first-ply subtrees.
func (b *Builder[P, M]) Workers() int {
	return b.workers
}

// Enumerate builds the forest of start with default options.
func Enumerate[P, M any](ctx context.Context, rules Rules[P, M], start P, depth int) (Forest[M], error) {
	return NewBuilder(rules).Build(ctx, start, depth)
}

// Build returns one tree per legal move of start, each expanded to depth-1
// further plies. Errors from the rules are returned as they are.
func (b *Builder[P, M]) Build(ctx context.Context, start P, depth int) (Forest[M], error) {
	if depth < 0 {
		return nil, fmt.Errorf("enumerate: %w: %d", ErrNegativeDepth, depth)
	}
	if depth == 0 {
		return Forest[M]{}, nil
	}

	moves, err := b.rules.LegalMoves(start)
	if err != nil {
		return nil, err
	}

	forest := make(Forest[M], len(moves))
	if b.workers == 1 {
		for i, m := range moves {
			if forest[i], err = b.expand(ctx, start, m, depth-1); err != nil {
				return nil, err
			}
		}
		return forest, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, m := range moves {
		g.Go(func() error {
			node, err := b.expand(gctx, start, m, depth-1)
			if err != nil {
				return err
			}
			forest[i] = node
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return forest, nil
}

// expand builds the node for m played in pos with remaining plies below it.
// Leaves are not applied; their successor position is never needed.
func (b *Builder[P, M]) expand(ctx context.Context, pos P, m M, remaining int) (*Node[M], error) {
	node := &Node[M]{Move: m}
	if remaining == 0 {
		return node, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	next, err := b.rules.Apply(pos, m)
	if err != nil {
		return nil, err
	}
	replies, err := b.rules.LegalMoves(next)
	if err != nil {
		return nil, err
	}
	if len(replies) == 0 {
		return node, nil
	}

	node.Children = make([]*Node[M], len(replies))
	for i, r := range replies {
		if node.Children[i], err = b.expand(ctx, next, r, remaining-1); err != nil {
			return nil, err
		}
	}
	return node, nil
}
