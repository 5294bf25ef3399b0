package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kartikbazzad/minipg/internal/config"
	"github.com/kartikbazzad/minipg/internal/engine"
	"github.com/kartikbazzad/minipg/internal/logger"
	"github.com/kartikbazzad/minipg/internal/server"
)

func main() {
	cfg := config.DefaultConfig()

	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "root directory for catalog, sequence, stats, and table files")
	flag.StringVar(&cfg.HTTP.Addr, "addr", cfg.HTTP.Addr, "HTTP listen address")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")
	flag.IntVar(&cfg.Sequence.FlushAfter, "seq-flush-after", cfg.Sequence.FlushAfter, "sequence cache hits before a background flush")
	flag.IntVar(&cfg.Stats.MaxWorkers, "stats-workers", cfg.Stats.MaxWorkers, "worker cap for the all-tables statistics refresh")
	flag.IntVar(&cfg.Workers.MaxBackground, "bg-workers", cfg.Workers.MaxBackground, "background worker pool size")
	flag.Parse()

	log, err := logger.New(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	eng, err := engine.Open(cfg, log)
	if err != nil {
		log.Fatalf("failed to open engine: %v", err)
	}

	srv := server.New(cfg, log, eng)
	srv.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.Errorf("HTTP shutdown: %v", err)
	}
	if err := eng.Close(); err != nil {
		log.Errorf("engine shutdown: %v", err)
	}
}
