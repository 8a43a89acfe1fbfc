// Command diarygrid renders a film diary as a calendar heatmap.
//
// Usage:
//
//	diarygrid -user someuser -year 2024                 # writes dark.svg, light.svg, export.json
//	diarygrid -user someuser -year 2023,2024 -mode rating
//	diarygrid -user someuser -year 2024 -config diarygrid.yaml -out ./out
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"diarygrid"
	"diarygrid/internal/aggregate"
)

func main() {
	user := flag.String("user", "", "diary username (required)")
	yearList := flag.String("year", "", "year or comma-separated years (required)")
	weekStart := flag.String("week-start", "sunday", "week start day: sunday or monday")
	mode := flag.String("mode", "count", "cell color mode: count or rating")
	gradient := flag.Bool("gradient", false, "fill the display name with a gradient")
	probe := flag.Bool("probe-earlier", false, "fall back to earlier years when the requested year is empty")
	outDir := flag.String("out", ".", "output directory")
	configPath := flag.String("config", "", "path to diarygrid.yaml config file")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *user, *yearList, *weekStart, *mode, *gradient, *probe, *outDir, *configPath); err != nil {
		logger.Error("diarygrid: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, user, yearList, weekStart, mode string, gradient, probe bool, outDir, configPath string) error {
	if user == "" || yearList == "" {
		fmt.Fprintln(os.Stderr, "usage: diarygrid -user <name> -year <year>[,<year>...] [flags]")
		os.Exit(2)
	}

	years, err := parseYears(yearList)
	if err != nil {
		return err
	}

	cfg := diarygrid.DefaultConfig()
	if configPath != "" {
		cfg, err = diarygrid.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	req := diarygrid.Request{
		Username:          user,
		Years:             years,
		UsernameGradient:  gradient,
		ProbeEarlierYears: probe,
	}
	if weekStart == "monday" {
		req.WeekStart = aggregate.WeekStartMonday
	}
	if mode == "rating" {
		req.Mode = aggregate.ModeRating
	}

	pipeline, err := diarygrid.New(cfg, logger)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	res, err := pipeline.Run(ctx, req)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	exportJSON, err := res.Export.JSON()
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}

	outputs := map[string][]byte{
		"dark.svg":    []byte(res.SVGDark),
		"light.svg":   []byte(res.SVGLight),
		"export.json": exportJSON,
	}
	for name, data := range outputs {
		path := filepath.Join(outDir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	logger.Info("diarygrid: run complete",
		"user", user, "years", res.Years,
		"entries", len(res.Entries), "days_active", res.Aggregate.DaysActive,
		"streak", res.Aggregate.Streak.Length, "out", outDir)
	return nil
}

func parseYears(s string) ([]int, error) {
	var years []int
	for _, part := range strings.Split(s, ",") {
		y, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid year %q", part)
		}
		years = append(years, y)
	}
	return years, nil
}
