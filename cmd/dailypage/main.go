package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/air-gapped/dailypage/internal/config"
	"github.com/air-gapped/dailypage/internal/datetoken"
	"github.com/air-gapped/dailypage/internal/logging"
	"github.com/air-gapped/dailypage/internal/server"
	"github.com/air-gapped/dailypage/internal/site"
)

// Set by linker via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const usage = `usage:
  dailypage build [flags]          enhance every page under --root
  dailypage serve [flags]          preview --root over HTTP
  dailypage shift TOKEN [DELTA]    print the date token DELTA days away
  dailypage --version
`

func main() {
	// Check for --version before full flag parsing
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" {
			fmt.Printf("dailypage %s (%s) built %s\n", version, commit, date)
			os.Exit(0)
		}
	}

	// A missing .env is fine; the environment and flags still apply.
	_ = godotenv.Load()

	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "dailypage: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("no command given")
	}

	switch cmd := args[0]; cmd {
	case "shift":
		return runShift(args[1:], stdout)
	case "build", "serve":
		cfg, err := config.Parse(cmd, args[1:])
		if err != nil {
			return err
		}
		if _, err := logging.Setup(os.Stdout, cfg.LogLevel, cfg.LogFormat); err != nil {
			return err
		}
		if cmd == "build" {
			return runBuild(cfg)
		}
		return runServe(cfg)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runShift(args []string, stdout io.Writer) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: dailypage shift TOKEN [DELTA]")
	}
	delta := 1
	if len(args) == 2 {
		d, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid delta %q: %w", args[1], err)
		}
		delta = d
	}
	shifted, err := datetoken.Shift(args[0], delta)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, shifted)
	return nil
}

func runBuild(cfg *config.Config) error {
	slog.Info("config loaded",
		"root", cfg.Root,
		"out", cfg.Out,
		"in_place", cfg.InPlace,
		"jobs", cfg.Jobs,
		"sanitize", cfg.Sanitize,
		"labels", cfg.LabelsFile,
	)

	proc, err := site.NewProcessor(site.ProcessorOptions{
		Version:  version,
		Lang:     cfg.Lang,
		Enhance:  cfg.EnhanceOptions(),
		Template: cfg.TemplateOptions(),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	start := time.Now()
	summary, err := site.Build(ctx, site.Options{
		Root:        cfg.Root,
		Out:         cfg.Out,
		InPlace:     cfg.InPlace,
		Jobs:        cfg.Jobs,
		MaxFileSize: cfg.MaxFileSize,
		Processor:   proc,
	})
	if summary != nil {
		slog.Info("build finished",
			"pages", summary.Pages,
			"copied", summary.Copied,
			"skipped_nav", summary.SkippedNav,
			"failed", summary.Failed,
			"total_ms", time.Since(start).Milliseconds(),
		)
	}
	return err
}

func runServe(cfg *config.Config) error {
	slog.Info("config loaded",
		"root", cfg.Root,
		"listen", cfg.Listen,
		"cache_ttl", cfg.CacheTTL.String(),
		"cache_max_size", cfg.CacheMaxSize,
		"max_file_size", cfg.MaxFileSize,
		"sanitize", cfg.Sanitize,
	)

	srv, err := server.New(cfg, version)
	if err != nil {
		return err
	}
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in background
	listenErr := make(chan error, 1)
	go func() {
		slog.Info("server started", "listen", cfg.Listen, "version", version)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
		close(listenErr)
	}()

	// Wait for shutdown signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	select {
	case err := <-listenErr:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	// Graceful shutdown with 30s timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	slog.Info("shutdown complete")
	return nil
}
