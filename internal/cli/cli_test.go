// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/commentsense/sense-tui/internal/config"
)

func TestParseDefaultsToTUI(t *testing.T) {
	cmd, args := parse(nil)
	assert.Equal(t, CmdTUI, cmd)
	assert.Empty(t, args.Environment)
}

func TestParseGlobalFlags(t *testing.T) {
	cmd, args := parse([]string{"--env", "local", "--no-markdown", "--data-dir=/tmp/sense"})
	assert.Equal(t, CmdTUI, cmd)
	assert.Equal(t, "local", args.Environment)
	assert.True(t, args.NoMarkdown)
	assert.Equal(t, "/tmp/sense", args.DataDir)
}

func TestParseURLEqualsForm(t *testing.T) {
	_, args := parse([]string{"--url=http://localhost:9000"})
	assert.Equal(t, "http://localhost:9000", args.BaseURL)
}

func TestParseVersionAliases(t *testing.T) {
	for _, alias := range []string{"version", "-v", "--version"} {
		cmd, _ := parse([]string{alias})
		assert.Equal(t, CmdVersion, cmd, alias)
	}
}

func TestParseConfigSet(t *testing.T) {
	cmd, args := parse([]string{"config", "set", "ui.theme", "light"})
	assert.Equal(t, CmdConfig, cmd)
	assert.Equal(t, "set", args.Subcommand)
	assert.Equal(t, "ui.theme", args.ConfigKey)
	assert.Equal(t, "light", args.ConfigVal)
}

func TestParseConfigShowDefault(t *testing.T) {
	cmd, args := parse([]string{"config"})
	assert.Equal(t, CmdConfig, cmd)
	assert.Empty(t, args.Subcommand)
}

func TestArgsApplyOverlaysConfig(t *testing.T) {
	cfg := config.Default()
	args := Args{Environment: "local", NoMarkdown: true, DataDir: "/tmp/sense"}
	args.Apply(cfg)

	assert.Equal(t, "local", cfg.API.Environment)
	assert.False(t, cfg.UI.RenderMarkdown)
	assert.Equal(t, "/tmp/sense", cfg.Storage.DataDir)
	assert.Equal(t, "http://localhost:8000", cfg.API.ResolveBaseURL())
}

func TestArgsApplyBaseURLWins(t *testing.T) {
	cfg := config.Default()
	Args{Environment: "local", BaseURL: "http://10.0.0.5:8000"}.Apply(cfg)
	assert.Equal(t, "http://10.0.0.5:8000", cfg.API.ResolveBaseURL())
}
