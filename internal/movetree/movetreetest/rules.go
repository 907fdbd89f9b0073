// Package movetreetest provides synthetic move generators for tests.
package movetreetest

import "fmt"

// Move is a synthetic move between two square indexes.
type Move struct {
	From, To int
}

func (m Move) String() string {
	return fmt.Sprintf("%d-%d", m.From, m.To)
}

// Line is a position identified by the moves that reached it.
type Line []Move

// Rules generates moves from a branching function over lines. The i-th move
// of a line of length n is Move{From: n, To: i}, so square indexes stay
// small and every move is distinguishable from its siblings.
type Rules struct {
	Branching func(line Line) int
	// Fail, when set, is returned by LegalMoves for the lines it matches.
	Fail func(line Line) error
}

// Uniform returns rules with the same branching factor everywhere.
func Uniform(n int) Rules {
	return Rules{Branching: func(Line) int { return n }}
}

// Widths returns rules whose branching factor depends only on ply: widths[0]
// moves at the start position, widths[1] replies after each of them, and so on.
// Plies past the end of widths are terminal.
func Widths(widths ...int) Rules {
	return Rules{Branching: func(line Line) int {
		if len(line) >= len(widths) {
			return 0
		}
		return widths[len(line)]
	}}
}

func (r Rules) LegalMoves(line Line) ([]Move, error) {
	if r.Fail != nil {
		if err := r.Fail(line); err != nil {
			return nil, err
		}
	}
	n := r.Branching(line)
	moves := make([]Move, n)
	for i := range moves {
		moves[i] = Move{From: len(line), To: i}
	}
	return moves, nil
}

func (r Rules) Apply(line Line, m Move) (Line, error) {
	next := make(Line, len(line), len(line)+1)
	copy(next, line)
	return append(next, m), nil
}

func (r Rules) Squares(m Move) (int, int) {
	return m.From, m.To
}
