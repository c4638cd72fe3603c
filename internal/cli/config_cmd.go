// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - handlers for the "config" command.
package cli

import (
	"fmt"
	"os"

	"github.com/commentsense/sense-tui/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow()

	case "set":
		return handleConfigSet(args.ConfigKey, args.ConfigVal)

	case "reset":
		return handleConfigReset()

	case "path":
		return handleConfigPath()

	default:
		return fmt.Errorf("unknown config subcommand: %s", args.Subcommand)
	}
}

func handleConfigShow() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Println("Comment Sense configuration")
	fmt.Println()
	fmt.Printf("  api.environment    %s\n", cfg.API.Environment)
	fmt.Printf("  api.base_url       %s (effective: %s)\n", displayValue(cfg.API.BaseURL), cfg.API.ResolveBaseURL())
	fmt.Printf("  api.timeout_secs   %d\n", cfg.API.TimeoutSecs)
	fmt.Printf("  api.max_retries    %d\n", cfg.API.MaxRetries)
	fmt.Printf("  ui.theme           %s\n", cfg.UI.Theme)
	fmt.Printf("  ui.compact_mode    %t\n", cfg.UI.CompactMode)
	fmt.Printf("  ui.render_markdown %t\n", cfg.UI.RenderMarkdown)
	fmt.Printf("  ui.show_usage      %t\n", cfg.UI.ShowUsage)
	fmt.Printf("  upload.max_size_mb %d\n", cfg.Upload.MaxSizeMB)
	fmt.Printf("  storage.data_dir   %s\n", displayValue(cfg.Storage.DataDir))
	fmt.Printf("  storage.max_conversations %d\n", cfg.Storage.MaxConversations)
	fmt.Println()

	path, err := config.ConfigPathTOML()
	if err == nil {
		fmt.Printf("Config file: %s\n", path)
	}
	return nil
}

func handleConfigSet(key, value string) error {
	if key == "" {
		return fmt.Errorf("usage: sense config set <key> <value>")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("Set %s = %s\n", key, value)
	return nil
}

func handleConfigReset() error {
	if err := config.Save(config.Default()); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Println("Configuration reset to defaults.")
	return nil
}

func handleConfigPath() error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		fmt.Printf("%s (not created yet)\n", path)
		return nil
	}
	fmt.Println(path)
	return nil
}

func displayValue(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}
