package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/TomasB/ip2geo/internal/backend"
	"github.com/TomasB/ip2geo/internal/config"
	"github.com/TomasB/ip2geo/internal/geo"
	"github.com/TomasB/ip2geo/internal/logging"
	"github.com/TomasB/ip2geo/internal/tui"
	"github.com/joho/godotenv"
)

func main() {
	fields := flag.String("fields", "", "comma-separated record fields to show (default country,regionName,isp,proxy)")
	logFile := flag.String("log", "", "append logs to this file; logs are discarded when empty")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ip2geo-tui:", err)
		os.Exit(2)
	}

	projection, err := geo.ParseProjection(*fields)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ip2geo-tui:", err)
		os.Exit(2)
	}

	// The screen belongs to the UI, so logs never go to the terminal.
	var w io.Writer = io.Discard
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, "ip2geo-tui:", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}
	logger := logging.New(w, logging.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng, b, err := backend.NewEngine(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ip2geo-tui:", err)
		os.Exit(1)
	}
	defer b.Close()

	if err := tui.New(eng, projection, logger).Run(); err != nil {
		fmt.Fprintln(os.Stderr, "ip2geo-tui:", err)
		os.Exit(1)
	}
	logger.Info("session ended", "stats", eng.Stats())
}
