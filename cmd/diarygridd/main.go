// Command diarygridd serves the pipeline over HTTP.
//
//	GET /api/scrape?username=<u>&year=<y>   structured JSON export
//	GET /api/svg?username=<u>&year=<y>&theme=dark|light&mode=count|rating
//	GET /healthz
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"diarygrid"
	"diarygrid/internal/aggregate"
)

func main() {
	// Optional .env overlay for local development.
	_ = godotenv.Load()

	addr := flag.String("addr", envOr("DIARYGRID_ADDR", ":8080"), "listen address")
	configPath := flag.String("config", os.Getenv("DIARYGRID_CONFIG"), "path to diarygrid.yaml config file")
	logLevel := flag.String("log-level", envOr("DIARYGRID_LOG_LEVEL", "info"), "log level: debug, info, warn, error")
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

	if err := run(ctx, logger, *addr, *configPath); err != nil {
		logger.Error("diarygridd: fatal", "error", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(ctx context.Context, logger *slog.Logger, addr, configPath string) error {
	cfg := diarygrid.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = diarygrid.LoadConfigFile(configPath)
		if err != nil {
			return err
		}
	}

	pipeline, err := diarygrid.New(cfg, logger)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	srv := &server{pipeline: pipeline, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/api/scrape", srv.handleScrape)
	r.Get("/api/svg", srv.handleSVG)

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("diarygridd: listening", "addr", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type server struct {
	pipeline *diarygrid.Pipeline
	logger   *slog.Logger
}

func (s *server) request(r *http.Request) (diarygrid.Request, error) {
	q := r.URL.Query()

	username := q.Get("username")
	if username == "" {
		return diarygrid.Request{}, errors.New("username is required")
	}

	year := time.Now().UTC().Year()
	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return diarygrid.Request{}, errors.New("invalid year")
		}
		year = y
	}

	req := diarygrid.Request{
		Username:          username,
		Years:             []int{year},
		ProbeEarlierYears: q.Get("year") == "",
	}
	if q.Get("week_start") == "monday" {
		req.WeekStart = aggregate.WeekStartMonday
	}
	if q.Get("mode") == "rating" {
		req.Mode = aggregate.ModeRating
	}
	req.UsernameGradient = q.Get("gradient") == "true"
	return req, nil
}

func (s *server) handleScrape(w http.ResponseWriter, r *http.Request) {
	req, err := s.request(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.pipeline.Run(r.Context(), req)
	if err != nil {
		s.logger.Error("diarygridd: scrape failed", "username", req.Username, "error", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	data, err := res.Export.JSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Write(data)
}

func (s *server) handleSVG(w http.ResponseWriter, r *http.Request) {
	req, err := s.request(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.pipeline.Run(r.Context(), req)
	if err != nil {
		s.logger.Error("diarygridd: svg failed", "username", req.Username, "error", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}

	svg := res.SVGDark
	if r.URL.Query().Get("theme") == "light" {
		svg = res.SVGLight
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write([]byte(svg))
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   err.Error(),
	})
}
