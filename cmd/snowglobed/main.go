// Package main is the entrypoint for snowglobed, the snowglobe server.
//
// snowglobed serves a simplified, Snowflake-shaped JSON session and query
// protocol (login, renew, close, query) that runs SQL against a local
// embedded engine, backed by a persisted catalog of databases, schemas,
// tables, and views. It is not a byte-for-byte reproduction of Snowflake's
// REST wire format.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/snowglobe/snowglobe/internal/catalog"
	"github.com/snowglobe/snowglobe/internal/config"
	"github.com/snowglobe/snowglobe/internal/engine"
	"github.com/snowglobe/snowglobe/internal/executor"
	"github.com/snowglobe/snowglobe/internal/history"
	"github.com/snowglobe/snowglobe/internal/observability"
	"github.com/snowglobe/snowglobe/internal/session"
	"github.com/snowglobe/snowglobe/internal/wire"
	"github.com/snowglobe/snowglobe/internal/worksheet"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "snowglobed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "config file (default: ./snowglobe.yaml)")
		showVer    = flag.Bool("version", false, "show version")
	)
	flag.Parse()

	if *showVer {
		fmt.Printf("snowglobed %s (commit: %s)\n", version, commit)
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	sink := observability.NewRingSink(cfg.LogCapacity, observability.ParseLevel(cfg.LogLevel), os.Stdout)
	sink.Log("snowglobed", observability.LevelInfo, "starting snowglobed %s", version)

	cat := catalog.New(cfg.CatalogPath(), sink)
	if err := cat.Load(); err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	eng, err := engine.New(cfg.EnginePath())
	if err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}
	defer eng.Close()

	sessions := session.NewManager(secondsToDuration(cfg.SessionIdleTimeoutSeconds))
	hist := history.New(cfg.HistoryCapacity)

	worksheets := worksheet.New(cfg.WorksheetsPath())
	if err := worksheets.Load(); err != nil {
		return fmt.Errorf("loading worksheets: %w", err)
	}

	exec := executor.New(cat, eng, sessions, hist, sink, secondsToDuration(cfg.QueryDeadlineSeconds))

	server, err := wire.New(cfg, exec, sessions, cat, hist, worksheets, sink)
	if err != nil {
		return fmt.Errorf("starting HTTP server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		sink.Log("snowglobed", observability.LevelInfo, "shutting down")
		cancel()
	}()

	sink.Log("snowglobed", observability.LevelInfo, "listening on %s:%d", cfg.Host, cfg.Port)
	return server.Run(ctx)
}

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
