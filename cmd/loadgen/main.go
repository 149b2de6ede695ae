// Command loadgen keeps a running todo server busy so its request counters
// have something to show. Each target URL gets its own workers that issue
// GETs with a random 1-10s client timeout and pause a second between calls.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jaekwang-park/todo-web/internal/middleware"
)

type options struct {
	targets  []string
	workers  int
	requests int
	pause    time.Duration
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		logger.Error("invalid flags", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run(ctx, logger, opts)
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("loadgen", flag.ContinueOnError)
	targets := fs.String("targets", "http://127.0.0.1:8080/index,http://127.0.0.1:8080/", "comma separated URLs to request")
	workers := fs.Int("workers", 1, "workers per target")
	requests := fs.Int("requests", 4000, "requests per worker, 0 for no limit")
	pause := fs.Duration("pause", time.Second, "pause between requests")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	opts := options{workers: *workers, requests: *requests, pause: *pause}
	for _, t := range strings.Split(*targets, ",") {
		if t = strings.TrimSpace(t); t != "" {
			opts.targets = append(opts.targets, t)
		}
	}
	if len(opts.targets) == 0 {
		return options{}, fmt.Errorf("at least one target is required")
	}
	if opts.workers < 1 {
		return options{}, fmt.Errorf("workers must be positive, got %d", opts.workers)
	}
	if opts.requests < 0 {
		return options{}, fmt.Errorf("requests must not be negative, got %d", opts.requests)
	}
	return opts, nil
}

func run(ctx context.Context, logger *slog.Logger, opts options) {
	var wg sync.WaitGroup
	for _, target := range opts.targets {
		target := target
		for i := 0; i < opts.workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				worker(ctx, logger, target, opts)
			}()
		}
	}
	wg.Wait()
	logger.Info("load generation finished")
}

func worker(ctx context.Context, logger *slog.Logger, target string, opts options) {
	for i := 0; opts.requests == 0 || i < opts.requests; i++ {
		if ctx.Err() != nil {
			return
		}

		timeout := time.Duration(rand.Intn(10)+1) * time.Second
		status, elapsed, err := hit(ctx, target, timeout)
		if err != nil {
			logger.Warn("request failed", "url", target, "timeout", timeout.String(), "error", err)
		} else {
			logger.Info("request done", "url", target, "status", status, "duration_ms", elapsed.Milliseconds())
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(opts.pause):
		}
	}
}

func hit(ctx context.Context, target string, timeout time.Duration) (int, time.Duration, error) {
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set(middleware.RequestIDHeader, uuid.NewString())

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, time.Since(start), nil
}
