// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for sense.
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/commentsense/sense-tui/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Environment string // --env local|production
	BaseURL     string // --url overrides the environment's base URL
	DataDir     string // --data-dir overrides the storage directory
	NoMarkdown  bool   // --no-markdown disables glamour rendering

	// Command-specific
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `sense - chat TUI for analyzing course evaluations

Sense talks to the Comment Sense backend: sign in, upload evaluation
files, and discuss the results with the analysis assistant.

Usage:
  sense                      Start TUI (default)
  sense config [show|set|reset|path]  Configuration
  sense version, -v          Show version
  sense help, -h             Show this help

Global flags:
  --env <local|production>   Select the backend environment
  --url <base-url>           Override the backend base URL
  --data-dir <dir>           Override the local data directory
  --no-markdown              Disable markdown rendering of replies

Examples:
  sense --env local
  sense config set ui.theme light
  sense config path

Configuration: ~/.sense/config.toml
Environment:   SENSE_API_URL, SENSE_ENV, SENSE_DATA_DIR
`

// PrintUsage prints the top-level usage text.
func PrintUsage() {
	fmt.Print(usageText)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("sense %s\n", Version)
	fmt.Printf("  commit:  %s\n", GitCommit)
	fmt.Printf("  built:   %s\n", BuildDate)
	fmt.Printf("  runtime: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Parse parses os.Args into a command and its arguments.
func Parse() (Command, Args) {
	return parse(os.Args[1:])
}

func parse(args []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(args)

	// If no remaining args, default to TUI
	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		PrintUsage()
		os.Exit(2)
		return CmdHelp, parsedArgs // unreachable
	}
}

func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "--env":
			if i+1 < len(args) {
				i++
				parsedArgs.Environment = args[i]
			}
		case "--url":
			if i+1 < len(args) {
				i++
				parsedArgs.BaseURL = args[i]
			}
		case "--data-dir":
			if i+1 < len(args) {
				i++
				parsedArgs.DataDir = args[i]
			}
		case "--no-markdown":
			parsedArgs.NoMarkdown = true
		default:
			switch {
			case strings.HasPrefix(arg, "--env="):
				parsedArgs.Environment = strings.TrimPrefix(arg, "--env=")
			case strings.HasPrefix(arg, "--url="):
				parsedArgs.BaseURL = strings.TrimPrefix(arg, "--url=")
			case strings.HasPrefix(arg, "--data-dir="):
				parsedArgs.DataDir = strings.TrimPrefix(arg, "--data-dir=")
			default:
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

func parseConfigArgs(parsedArgs *Args, remaining []string) {
	if len(remaining) == 0 {
		return
	}
	parsedArgs.Subcommand = remaining[0]
	if parsedArgs.Subcommand == "set" {
		if len(remaining) > 1 {
			parsedArgs.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			parsedArgs.ConfigVal = strings.Join(remaining[2:], " ")
		}
	}
}

// Apply overlays the parsed global flags onto a loaded config.
func (a Args) Apply(cfg *config.Config) {
	if a.Environment != "" {
		cfg.API.Environment = a.Environment
	}
	if a.BaseURL != "" {
		cfg.API.BaseURL = a.BaseURL
	}
	if a.DataDir != "" {
		cfg.Storage.DataDir = a.DataDir
	}
	if a.NoMarkdown {
		cfg.UI.RenderMarkdown = false
	}
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// HandleVersion handles the "version" command.
func HandleVersion() {
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
