package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/notnil/chess"
	"lukechampine.com/frand"

	"movecache/internal/app"
	"movecache/internal/book"
	"movecache/internal/chessrules"
)

func main() {
	app.SetupLogging("warn")

	path := "data/starting_moves.pak"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	fen := ""
	if len(os.Args) > 2 {
		fen = strings.Join(os.Args[2:], " ")
	}

	b, err := loadBook(path)
	if err != nil {
		var ce *book.CorruptArtifactError
		switch {
		case errors.Is(err, book.ErrNotFound):
			fmt.Println("no book at", path, "- run `movecache build` first")
		case errors.As(err, &ce):
			fmt.Println("book is corrupt, rebuild it:", err)
		default:
			fmt.Println("load error:", err)
		}
		os.Exit(1)
	}

	pos := chessrules.StartingPosition()
	if fen != "" {
		if pos, err = chessrules.PositionFromFEN(fen); err != nil {
			fmt.Println("fen error:", err)
			os.Exit(1)
		}
	}

	fmt.Printf("book: %d nodes, %d plies\n", b.Nodes(), b.Depth())
	notation := chess.UCINotation{}
	moves, ok, err := chessrules.BookMoves(b, pos, nil)
	if err != nil {
		fmt.Println("book does not match position:", err)
		os.Exit(1)
	}
	first := make([]string, 0, len(moves))
	for _, m := range moves {
		first = append(first, notation.Encode(pos, m))
	}
	fmt.Println("first moves:", strings.Join(first, " "), "ok:", ok)

	line, err := chessrules.BookLine(b, pos, 0, frand.Intn)
	if err != nil {
		fmt.Println("book line error:", err)
		os.Exit(1)
	}
	fmt.Println("random line:", strings.Join(line, " "))
}

func loadBook(path string) (*book.Book, error) {
	forest, err := book.LoadCache(path)
	if err != nil {
		return nil, err
	}
	return book.New(forest), nil
}
