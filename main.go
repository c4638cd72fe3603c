// sense TUI - a terminal interface for Comment Sense course-evaluation chat.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/commentsense/sense-tui/internal/api"
	"github.com/commentsense/sense-tui/internal/auth"
	"github.com/commentsense/sense-tui/internal/cli"
	"github.com/commentsense/sense-tui/internal/config"
	"github.com/commentsense/sense-tui/internal/stats"
	"github.com/commentsense/sense-tui/internal/storage"
	"github.com/commentsense/sense-tui/internal/ui/app"
	"github.com/commentsense/sense-tui/internal/ui/chat"
	"github.com/commentsense/sense-tui/internal/ui/styles"
	"github.com/commentsense/sense-tui/internal/upload"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference for async event delivery
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdConfig:
		if err := cli.HandleConfig(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case cli.CmdVersion:
		cli.HandleVersion()
	case cli.CmdHelp:
		cli.HandleHelp()
	}
}

func runTUI(args cli.Args) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "sense needs an interactive terminal; see 'sense help' for other commands")
		os.Exit(1)
	}

	cfg := config.Global()
	args.Apply(cfg)

	client := api.NewClient(cfg.API.ResolveBaseURL()).
		WithMaxRetries(cfg.API.MaxRetries)

	dataDir, err := cfg.DataDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving data directory: %v\n", err)
		os.Exit(1)
	}
	store, err := storage.Open(filepath.Join(dataDir, "state.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening local state: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	guard := auth.NewGuard(store, client)
	statsStore := stats.NewStore(client, guard)
	poller := upload.NewPoller(client, guard)
	theme := styles.NewTheme()

	m := app.New(theme, client, guard, statsStore, poller, store, cfg)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Enable mouse support
	)

	programMu.Lock()
	programRef = p
	programMu.Unlock()

	// Stats events from the background refresher arrive outside the Bubble
	// Tea loop, so they go in through p.Send.
	unsubscribe := statsStore.Subscribe(func(ev stats.Event) {
		programMu.Lock()
		ref := programRef
		programMu.Unlock()
		if ref != nil {
			ref.Send(chat.StatsEventMsg{Event: ev})
		}
	})
	defer unsubscribe()

	// Periodic authoritative usage refresh. It overwrites any optimistic
	// local counts with the backend's numbers.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go statsStore.Run(ctx)

	// Live-reload the config file so theme or backend edits apply on the
	// next restart of a view rather than a full process restart.
	watcher, err := config.NewWatcher(func(updated *config.Config) {
		config.SetGlobal(updated)
	})
	if err == nil {
		if watchErr := watcher.Watch(); watchErr == nil {
			defer watcher.Close()
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running sense: %v\n", err)
		os.Exit(1)
	}
}
