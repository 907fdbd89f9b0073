package chessrules

import (
	"context"
	"testing"

	"github.com/notnil/chess"

	"movecache/internal/book"
)

func startBook(t *testing.T, depth int) *book.Book {
	t.Helper()
	forest, err := book.BuildCache(context.Background(), Rules{}, StartingPosition(), depth)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return book.New(forest)
}

func TestBookLine(t *testing.T) {
	b := startBook(t, 3)
	first := func(int) int { return 0 }

	line, err := BookLine(b, StartingPosition(), 0, first)
	if err != nil {
		t.Fatalf("book line: %v", err)
	}
	if len(line) != 3 {
		t.Fatalf("got %d plies want 3: %v", len(line), line)
	}

	pos := StartingPosition()
	notation := chess.UCINotation{}
	for i, uci := range line {
		want := pos.ValidMoves()[0]
		if got := notation.Encode(pos, want); got != uci {
			t.Fatalf("ply %d: got %s want %s", i, uci, got)
		}
		pos = pos.Update(want)
	}

	short, err := BookLine(b, StartingPosition(), 2, first)
	if err != nil {
		t.Fatalf("book line: %v", err)
	}
	if len(short) != 2 {
		t.Fatalf("got %d plies want 2", len(short))
	}
}

func TestBookLineBadPick(t *testing.T) {
	b := startBook(t, 1)
	if _, err := BookLine(b, StartingPosition(), 0, func(n int) int { return n }); err == nil {
		t.Fatal("expected error for out of range pick")
	}
}

func TestBookMoves(t *testing.T) {
	b := startBook(t, 2)
	start := StartingPosition()
	notation := chess.UCINotation{}

	e4, err := notation.Decode(start, "e2e4")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	replies, ok, err := BookMoves(b, start, []*chess.Move{e4})
	if err != nil || !ok {
		t.Fatalf("book moves: ok=%v err=%v", ok, err)
	}
	if len(replies) != 20 {
		t.Fatalf("got %d replies want 20", len(replies))
	}

	after := start.Update(e4)
	e5, err := notation.Decode(after, "e7e5")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	leaf, ok, err := BookMoves(b, start, []*chess.Move{e4, e5})
	if err != nil || !ok || len(leaf) != 0 {
		t.Fatalf("leaf: moves=%d ok=%v err=%v", len(leaf), ok, err)
	}

	nf3, err := notation.Decode(after.Update(e5), "g1f3")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	_, ok, err = BookMoves(b, start, []*chess.Move{e4, e5, nf3})
	if err != nil || ok {
		t.Fatalf("out of book: ok=%v err=%v", ok, err)
	}
}
