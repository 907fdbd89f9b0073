// Package movetree enumerates every move sequence reachable from a position
// up to a fixed number of plies.
package movetree

// Rules is the move generator the enumerator walks. Positions are treated as
// values: Apply returns the successor and leaves its argument untouched, and
// it may be called concurrently on the same position from several goroutines.
type Rules[P, M any] interface {
	// LegalMoves returns the moves available in pos in a stable order. An
	// empty result means pos is terminal.
	LegalMoves(pos P) ([]M, error)
	Apply(pos P, m M) (P, error)
	// Squares returns the origin and destination square indexes of m.
	Squares(m M) (from, to int)
}

// Node is a move together with every reply enumerated after it.
type Node[M any] struct {
	Move     M
	Children []*Node[M]
}

// Forest holds one tree per first-ply move, in generator order.
type Forest[M any] []*Node[M]

type Stats struct {
	Nodes    int
	Leaves   int
	MaxDepth int
}

// Walk visits every node in pre-order. Roots are at depth 1. When fn returns
// false the children of that node are skipped.
func (f Forest[M]) Walk(fn func(n *Node[M], depth int) bool) {
	walk(f, 1, fn)
}

func walk[M any](nodes []*Node[M], depth int, fn func(*Node[M], int) bool) {
	for _, n := range nodes {
		if fn(n, depth) {
			walk(n.Children, depth+1, fn)
		}
	}
}

func (f Forest[M]) Stats() Stats {
	var s Stats
	f.Walk(func(n *Node[M], depth int) bool {
		s.Nodes++
		if len(n.Children) == 0 {
			s.Leaves++
		}
		if depth > s.MaxDepth {
			s.MaxDepth = depth
		}
		return true
	})
	return s
}
