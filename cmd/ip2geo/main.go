package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TomasB/ip2geo/internal/backend"
	"github.com/TomasB/ip2geo/internal/config"
	"github.com/TomasB/ip2geo/internal/geo"
	"github.com/TomasB/ip2geo/internal/logging"
	"github.com/TomasB/ip2geo/internal/output"
	"github.com/joho/godotenv"
	"golang.org/x/term"
)

const usage = `usage: ip2geo [-fields f1,f2] [-format tsv|csv|jsonl] [-o out] [file ...]

Reads IP addresses one per line from the named files, or stdin when none are
given, and writes one geolocation row per input line.
`

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ip2geo:", err)
		os.Exit(2)
	}

	logger := logging.New(os.Stderr, logging.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "reading addresses from the terminal; finish with Ctrl-D")
	}

	if err := run(ctx, cfg, logger, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "ip2geo:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("ip2geo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	fields := fs.String("fields", "", "comma-separated record fields to print (default country,regionName,isp,proxy)")
	format := fs.String("format", "tsv", "output format: tsv, csv or jsonl")
	out := fs.String("o", "", "write results to this file instead of stdout")
	quiet := fs.Bool("q", false, "do not print the summary line")
	if err := fs.Parse(args); err != nil {
		return err
	}

	projection, err := geo.ParseProjection(*fields)
	if err != nil {
		return err
	}
	f, err := output.ParseFormat(*format)
	if err != nil {
		return err
	}

	lines, err := readLines(fs.Args(), stdin)
	if err != nil {
		return err
	}

	eng, b, err := backend.NewEngine(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", cfg.Backend, err)
	}
	defer b.Close()

	start := time.Now()
	results, err := eng.RunBatch(ctx, lines)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	w := stdout
	if *out != "" {
		file, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}
	bw := bufio.NewWriter(w)
	if err := output.Write(bw, f, projection, results); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	if !*quiet {
		fmt.Fprintf(stderr, "%s in %s\n", output.Summarize(results), elapsed.Round(time.Millisecond))
	}
	return nil
}

// readLines concatenates the lines of every named file, or of stdin when
// there are none. "-" names stdin.
func readLines(paths []string, stdin io.Reader) ([]string, error) {
	if len(paths) == 0 {
		return scanLines(stdin)
	}
	var lines []string
	for _, path := range paths {
		var r io.Reader = stdin
		if path != "-" {
			file, err := os.Open(path)
			if err != nil {
				return nil, err
			}
			defer file.Close()
			r = file
		}
		got, err := scanLines(r)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		lines = append(lines, got...)
	}
	return lines, nil
}

func scanLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}
