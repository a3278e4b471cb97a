// Command blinkdb runs the key/value store server: it wires together the
// keyspace, the persistence snapshot, and the connection front-end, and
// handles graceful shutdown.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/rsms/blinkdb/internal/frontend"
	"github.com/rsms/blinkdb/internal/persist"
	"github.com/rsms/blinkdb/internal/store"
	log "github.com/rsms/go-log"
	"golang.org/x/sync/errgroup"
)

// Config holds the server's start-up configuration, parsed from
// command-line flags by kong.
type Config struct {
	Addr       string `help:"Address to listen on." default:":9001"`
	DataFile   string `help:"Persistence snapshot path." default:"blinkdb_data.txt" type:"path"`
	Capacity   int    `help:"Maximum live key count before eviction." default:"1000"`
	FilterBits int    `help:"Membership filter width in bits." default:"10000"`
	LogLevel   string `help:"Log level: debug, info, warn, error." default:"info" enum:"debug,info,warn,error"`
}

func main() {
	var cfg Config
	kong.Parse(&cfg, kong.Description("An in-memory key/value store with a Redis-like wire protocol."))

	logger := log.RootLogger
	logger.SetWriter(os.Stderr)
	switch cfg.LogLevel {
	case "debug":
		logger.Level = log.LevelDebug
	case "warn":
		logger.Level = log.LevelWarn
	case "error":
		logger.Level = log.LevelError
	default:
		logger.Level = log.LevelInfo
	}

	instanceID := uuid.New().String()
	logger.Info("starting blinkdb instance=%s addr=%s capacity=%d", instanceID, cfg.Addr, cfg.Capacity)

	k := store.New(cfg.Capacity, uint64(cfg.FilterBits), logger)
	persist.Load(cfg.DataFile, k, logger)
	logger.Info("keyspace ready with %d keys", k.Len())

	srv := &frontend.Server{Keyspace: k, Logger: logger}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, cfg.Addr)
	})

	<-gctx.Done()
	logger.Info("shutting down")
	srv.Close()

	if err := persist.Save(cfg.DataFile, k, logger); err != nil {
		logger.Warn("final snapshot failed: %v", err)
	}

	if err := g.Wait(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
