package chessrules

import (
	"fmt"

	"github.com/notnil/chess"

	"movecache/internal/book"
)

// BookMoves returns the book replies after played, starting from the
// position the book was built from. ok is false once the game has left the
// book.
func BookMoves(b *book.Book, start *chess.Position, played []*chess.Move) (moves []*chess.Move, ok bool, err error) {
	steps := make([]book.Step, 0, len(played))
	pos := start
	for _, m := range played {
		steps = append(steps, StepOf(pos, m))
		pos = pos.Update(m)
	}

	next, ok := b.Continuations(steps)
	if !ok {
		return nil, false, nil
	}
	for i := range next {
		m, err := ResolveStep(pos, book.StepAt(next, i))
		if err != nil {
			return nil, false, err
		}
		moves = append(moves, m)
	}
	return moves, true, nil
}

// BookLine walks the book from start for at most maxPlies plies and returns
// the line in UCI notation. pick chooses one of n continuations.
func BookLine(b *book.Book, start *chess.Position, maxPlies int, pick func(n int) int) ([]string, error) {
	line := make([]string, 0, 8)
	steps := make([]book.Step, 0, 8)
	pos := start
	notation := chess.UCINotation{}

	for maxPlies <= 0 || len(line) < maxPlies {
		next, ok := b.Continuations(steps)
		if !ok || len(next) == 0 {
			break
		}
		i := pick(len(next))
		if i < 0 || i >= len(next) {
			return nil, fmt.Errorf("book line: pick returned %d for %d continuations", i, len(next))
		}
		step := book.StepAt(next, i)
		mv, err := ResolveStep(pos, step)
		if err != nil {
			return nil, err
		}
		line = append(line, notation.Encode(pos, mv))
		steps = append(steps, step)
		pos = pos.Update(mv)
	}

	return line, nil
}
