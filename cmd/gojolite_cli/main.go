// Command gojolite_cli is an interactive shell over a single gojolite table file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sushant-115/gojolite/config"
	"github.com/sushant-115/gojolite/core/indexing/btree"
	internaltelemetry "github.com/sushant-115/gojolite/internal/telemetry"
	"github.com/sushant-115/gojolite/pkg/logger"
	"github.com/sushant-115/gojolite/pkg/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config file.yaml] <db-file>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		cfg = loaded
	}
	switch flag.NArg() {
	case 0:
		if *configPath == "" {
			flag.Usage()
			return 1
		}
	case 1:
		cfg.Database.Path = flag.Arg(0)
	default:
		flag.Usage()
		return 1
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer log.Sync()
	sessionID := uuid.New()
	log = log.With(zap.String("session_id", sessionID.String()))

	tel, shutdown, err := telemetry.New(cfg.Telemetry)
	if err != nil {
		log.Error("Failed to start telemetry", zap.Error(err))
		return 1
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()
	metrics, err := internaltelemetry.NewStorageMetrics(tel.Meter)
	if err != nil {
		log.Error("Failed to create storage metrics", zap.Error(err))
		return 1
	}

	table, err := btree.Open(cfg.Database.Path,
		btree.WithLogger(log),
		btree.WithMetrics(metrics),
		btree.WithInternalMaxCells(cfg.Database.InternalMaxCells),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open table %s: %v\n", cfg.Database.Path, err)
		return 1
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     filepath.Join(os.TempDir(), "gojolite_cli.history"),
		InterruptPrompt: "^C",
		EOFPrompt:       ".exit",
	})
	if err != nil {
		_ = table.Close()
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer rl.Close()

	log.Info("Session started", zap.String("path", cfg.Database.Path))
	r := &repl{table: table, out: rl.Stdout(), logger: log, tracer: tel.Tracer}
	if err := r.run(context.Background(), rl); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
