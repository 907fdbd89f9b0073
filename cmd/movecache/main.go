package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"movecache/internal/app"
	"movecache/internal/config"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: movecache [flags] <command>

commands:
  build   enumerate the start position and write the book artifact
  export  copy the book artifact into the SQLite export database

flags:
`)
	flag.PrintDefaults()
}

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	flag.IntVar(&cfg.Depth, "depth", cfg.Depth, "plies to enumerate")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent first-ply subtrees (0 = GOMAXPROCS)")
	flag.StringVar(&cfg.ArtifactPath, "out", cfg.ArtifactPath, "book artifact path")
	flag.StringVar(&cfg.StartFEN, "fen", cfg.StartFEN, "start position")
	flag.StringVar(&cfg.ExportDBPath, "db", cfg.ExportDBPath, "SQLite export path")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn, error or disabled")
	name := flag.String("name", "starting_moves", "export name")
	flag.Usage = usage
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	app.SetupLogging(cfg.LogLevel)

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init")
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch flag.Arg(0) {
	case "build":
		_, err = application.Build(ctx)
	case "export":
		_, err = application.Export(ctx, *name)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		application.Close()
		log.Fatal().Err(err).Msg(flag.Arg(0))
	}
}
