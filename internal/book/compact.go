package book

import (
	"context"

	"golang.org/x/sync/errgroup"

	"movecache/internal/movetree"
)

const maxSquare = 63

// Compact projects a move forest onto records, keeping only the origin and
// destination of each move. The result has the same shape and order as the
// input.
func Compact[M any](forest movetree.Forest[M], squares func(M) (int, int)) (Forest, error) {
	return compactNodes(forest, squares, 1)
}

// CompactParallel is Compact with at most workers first-ply subtrees
// converted concurrently. It stops early once ctx is done.
func CompactParallel[M any](ctx context.Context, forest movetree.Forest[M], squares func(M) (int, int), workers int) (Forest, error) {
	out := make(Forest, len(forest))
	if workers == 1 {
		for i, n := range forest {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rec, err := compactNode(n, squares, 1)
			if err != nil {
				return nil, err
			}
			out[i] = rec
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, n := range forest {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := compactNode(n, squares, 1)
			if err != nil {
				return err
			}
			out[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func compactNodes[M any](nodes []*movetree.Node[M], squares func(M) (int, int), ply int) ([]Record, error) {
	out := make([]Record, len(nodes))
	for i, n := range nodes {
		rec, err := compactNode(n, squares, ply)
		if err != nil {
			return nil, err
		}
		out[i] = rec
	}
	return out, nil
}

func compactNode[M any](n *movetree.Node[M], squares func(M) (int, int), ply int) (Record, error) {
	from, to := squares(n.Move)
	if from < 0 || from > maxSquare {
		return Record{}, &EncodingError{Field: "origin square", Value: from, Ply: ply}
	}
	if to < 0 || to > maxSquare {
		return Record{}, &EncodingError{Field: "destination square", Value: to, Ply: ply}
	}
	rec := Record{From: uint8(from), To: uint8(to)}
	if len(n.Children) == 0 {
		return rec, nil
	}
	children, err := compactNodes(n.Children, squares, ply+1)
	if err != nil {
		return Record{}, err
	}
	rec.Children = children
	return rec, nil
}
