package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"commentcascade/internal/app"
	"commentcascade/internal/config"
	"commentcascade/internal/service"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	if err := run(context.Background(), cfg, logger, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string, out io.Writer) error {
	// Define subcommands
	buildCmd := flag.NewFlagSet("build", flag.ContinueOnError)
	buildDate := buildCmd.String("date", "", "Puzzle date YYYY-MM-DD (default: today, UTC)")

	showCmd := flag.NewFlagSet("show", flag.ContinueOnError)
	showDate := showCmd.String("date", "", "Puzzle date YYYY-MM-DD (default: today, UTC)")

	revealCmd := flag.NewFlagSet("reveal", flag.ContinueOnError)
	revealDate := revealCmd.String("date", "", "Puzzle date YYYY-MM-DD (default: today, UTC)")
	revealAttempts := revealCmd.Int("attempts", 0, "Number of wrong guesses (0-6)")

	purgeCmd := flag.NewFlagSet("purge", flag.ContinueOnError)

	var (
		fs   *flag.FlagSet
		date *string
	)
	switch args[0] {
	case "build":
		fs, date = buildCmd, buildDate
	case "show":
		fs, date = showCmd, showDate
	case "reveal":
		fs, date = revealCmd, revealDate
	case "purge":
		fs = purgeCmd
	default:
		printUsage(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
	fs.SetOutput(out)
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	day := time.Now().UTC()
	if date != nil && *date != "" {
		parsed, err := time.Parse(time.DateOnly, *date)
		if err != nil {
			return fmt.Errorf("invalid -date %q: %w", *date, err)
		}
		day = parsed
	}

	a, err := app.New(ctx, cfg, logger, nil, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	switch args[0] {
	case "build":
		return handleBuild(ctx, a, day, out)
	case "show":
		return handleShow(ctx, a, day, out)
	case "reveal":
		return handleReveal(ctx, a, day, *revealAttempts, out)
	default:
		return handlePurge(ctx, a, out)
	}
}

// handleBuild returns the day's puzzle, building and caching it on a miss
func handleBuild(ctx context.Context, a *app.App, day time.Time, out io.Writer) error {
	puzzle := a.Cache.GetToday(ctx, day)
	return writeJSON(out, puzzle)
}

func handleShow(ctx context.Context, a *app.App, day time.Time, out io.Writer) error {
	puzzle, found, err := a.Cache.Peek(ctx, day)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", service.CacheKey(day), err)
	}
	if !found {
		return fmt.Errorf("no cached puzzle for %s", service.DateString(day))
	}
	return writeJSON(out, puzzle)
}

func handleReveal(ctx context.Context, a *app.App, day time.Time, attempts int, out io.Writer) error {
	puzzle := a.Cache.GetToday(ctx, day)
	comments, err := service.RevealComments(puzzle, attempts)
	if err != nil {
		return err
	}
	for i, comment := range comments {
		fmt.Fprintf(out, "%d. %s\n", i+1, comment)
	}
	return nil
}

func handlePurge(ctx context.Context, a *app.App, out io.Writer) error {
	removed, err := a.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}
	fmt.Fprintf(out, "Removed %d expired entries\n", removed)
	return nil
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "Comment Cascade puzzle tool")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  puzzlectl build  [-date YYYY-MM-DD]                 Build (or load) and print a day's puzzle")
	fmt.Fprintln(out, "  puzzlectl show   [-date YYYY-MM-DD]                 Print the cached puzzle for a day")
	fmt.Fprintln(out, "  puzzlectl reveal [-date YYYY-MM-DD] -attempts N     Print comments revealed for N wrong guesses")
	fmt.Fprintln(out, "  puzzlectl purge                                     Remove expired cache entries")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Configuration is read from the environment (see CACHE_BACKEND, DB_TYPE, DB_PATH).")
}
