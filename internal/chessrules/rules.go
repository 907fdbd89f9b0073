// Package chessrules adapts github.com/notnil/chess to the move tree
// builder and maps book records back onto legal moves.
package chessrules

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
	"github.com/samber/lo"

	"movecache/internal/book"
)

// Rules enumerates standard chess moves. Squares are numbered A1=0 .. H8=63,
// which is the order of chess.Square.
type Rules struct{}

func (Rules) LegalMoves(pos *chess.Position) ([]*chess.Move, error) {
	if pos == nil {
		return nil, fmt.Errorf("legal moves: nil position")
	}
	return pos.ValidMoves(), nil
}

func (Rules) Apply(pos *chess.Position, m *chess.Move) (*chess.Position, error) {
	if pos == nil || m == nil {
		return nil, fmt.Errorf("apply: nil position or move")
	}
	return pos.Update(m), nil
}

func (Rules) Squares(m *chess.Move) (int, int) {
	return int(m.S1()), int(m.S2())
}

func StartingPosition() *chess.Position {
	return chess.StartingPosition()
}

// PositionFromFEN parses a full FEN or one without the move counters.
func PositionFromFEN(fen string) (*chess.Position, error) {
	parts := strings.Fields(strings.TrimSpace(fen))
	if len(parts) < 4 {
		return nil, fmt.Errorf("invalid FEN %q", fen)
	}
	if len(parts) == 4 {
		parts = append(parts, "0", "1")
	}
	opt, err := chess.FEN(strings.Join(parts, " "))
	if err != nil {
		return nil, fmt.Errorf("parse FEN: %w", err)
	}
	return chess.NewGame(opt).Position(), nil
}

// Resolve returns the legal moves of pos that rec stands for, in generator
// order. More than one move comes back only for promotions; which of them a
// record means follows from its rank among equal-square siblings (see
// book.StepAt).
func Resolve(pos *chess.Position, rec book.Record) ([]*chess.Move, error) {
	moves := lo.Filter(pos.ValidMoves(), func(m *chess.Move, _ int) bool {
		return int(m.S1()) == int(rec.From) && int(m.S2()) == int(rec.To)
	})
	if len(moves) == 0 {
		return nil, fmt.Errorf("resolve %s%s: no legal move in %s",
			chess.Square(rec.From), chess.Square(rec.To), pos)
	}
	return moves, nil
}

// ResolveStep returns the single move of pos that step selects.
func ResolveStep(pos *chess.Position, step book.Step) (*chess.Move, error) {
	moves, err := Resolve(pos, book.Record{From: step.From, To: step.To})
	if err != nil {
		return nil, err
	}
	if step.Nth < 0 || step.Nth >= len(moves) {
		return nil, fmt.Errorf("resolve %s%s: choice %d of %d",
			chess.Square(step.From), chess.Square(step.To), step.Nth, len(moves))
	}
	return moves[step.Nth], nil
}

// StepOf converts m, a legal move of pos, into a book lookup step.
func StepOf(pos *chess.Position, m *chess.Move) book.Step {
	step := book.Step{From: uint8(m.S1()), To: uint8(m.S2())}
	for _, v := range pos.ValidMoves() {
		if v.S1() != m.S1() || v.S2() != m.S2() {
			continue
		}
		if v.Promo() == m.Promo() {
			break
		}
		step.Nth++
	}
	return step
}
