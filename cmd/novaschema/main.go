package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chzyer/readline"

	"github.com/tuannm99/novaschema/internal"
	"github.com/tuannm99/novaschema/internal/catalog"
	"github.com/tuannm99/novaschema/internal/shell"
)

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".novaschema_history")
}

func main() {
	var (
		cfgPath = flag.String("config", "novaschema.yaml", "config file path")
		oneShot = flag.String("c", "", "run one command and exit")
	)
	flag.Parse()

	cfg, err := internal.LoadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	lvl, _ := cfg.LogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(ctx, cfg.Catalog.Dir)
	if err != nil {
		slog.Error("load catalog", "dir", cfg.Catalog.Dir, "err", err)
		os.Exit(1)
	}
	if err := cfg.RegisterTables(cat); err != nil {
		slog.Error("register tables", "err", err)
		os.Exit(1)
	}

	format, _ := catalog.ParseFormat(cfg.Catalog.Format)
	sh := &shell.Shell{Catalog: cat, Dir: cfg.Catalog.Dir, Format: format}

	if strings.TrimSpace(*oneShot) != "" {
		if err := sh.Exec(ctx, os.Stdout, *oneShot); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	histPath := cfg.Shell.HistoryFile
	if histPath == "" {
		histPath = defaultHistoryPath()
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          cfg.Shell.Prompt,
		HistoryFile:     histPath,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = rl.Close() }()

	fmt.Printf("%s: %d tables loaded\n", cfg.AppName, cat.Len())
	fmt.Println("type help for help")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			// EOF
			fmt.Println()
			return
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit", "quit", "\\q":
			return
		}

		if err := sh.Exec(ctx, os.Stdout, line); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}
