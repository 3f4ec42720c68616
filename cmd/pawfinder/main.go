package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/erangaIrugalbandara/PawFinderMess/internal/cli"
	"github.com/erangaIrugalbandara/PawFinderMess/internal/config"
	"github.com/erangaIrugalbandara/PawFinderMess/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	offline := flag.Bool("offline", false, "use an in-process account store instead of the remote backend")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := cli.NewApp(ctx, cfg, logger, *offline)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
