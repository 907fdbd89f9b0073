// Package book builds, stores and reads precomputed opening trees: every
// move sequence up to a fixed depth from a start position, reduced to
// origin/destination pairs and kept in a compressed artifact.
package book

import (
	"context"

	"github.com/rs/zerolog/log"

	"movecache/internal/movetree"
)

// BuildCache enumerates start to depth plies and compacts the result. Both
// stages use the worker bound given in opts.
func BuildCache[P, M any](ctx context.Context, rules movetree.Rules[P, M], start P, depth int, opts ...movetree.Option) (Forest, error) {
	builder := movetree.NewBuilder(rules, opts...)
	tree, err := builder.Build(ctx, start, depth)
	if err != nil {
		return nil, err
	}
	stats := tree.Stats()
	log.Debug().Int("depth", depth).Int("nodes", stats.Nodes).Int("leaves", stats.Leaves).Msg("move tree enumerated")

	return CompactParallel(ctx, tree, rules.Squares, builder.Workers())
}

// SaveCache atomically writes forest to path.
func SaveCache(forest Forest, path string) error {
	return Save(forest, path)
}

// LoadCache reads the forest stored at path.
func LoadCache(path string) (Forest, error) {
	return Load(path)
}

// Step is one move of a line, by square index. Nth picks among siblings
// that share both squares (promotion choices), counted in book order.
type Step struct {
	From, To uint8
	Nth      int
}

// Book answers which moves the cache holds after a given line.
type Book struct {
	roots Forest
	stats movetree.Stats
}

func New(forest Forest) *Book {
	return &Book{roots: forest, stats: forest.Stats()}
}

func (b *Book) Forest() Forest {
	return b.roots
}

// Depth is the number of plies covered by the deepest line.
func (b *Book) Depth() int {
	return b.stats.MaxDepth
}

func (b *Book) Nodes() int {
	return b.stats.Nodes
}

// Continuations returns the records that follow line. The boolean is false
// when line leaves the book. A line that ends on a leaf is still in the book
// and has no continuations.
func (b *Book) Continuations(line []Step) (Forest, bool) {
	level := b.roots
	for _, step := range line {
		next, ok := find(level, step)
		if !ok {
			return nil, false
		}
		level = next.Children
	}
	return level, true
}

func find(records []Record, step Step) (*Record, bool) {
	seen := 0
	for i := range records {
		if records[i].From != step.From || records[i].To != step.To {
			continue
		}
		if seen == step.Nth {
			return &records[i], true
		}
		seen++
	}
	return nil, false
}

// StepAt returns the step that selects records[i].
func StepAt(records []Record, i int) Step {
	r := records[i]
	nth := 0
	for _, prev := range records[:i] {
		if prev.From == r.From && prev.To == r.To {
			nth++
		}
	}
	return Step{From: r.From, To: r.To, Nth: nth}
}
