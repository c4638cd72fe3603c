// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/commentsense/sense-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter renders a conversation as a Markdown document.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a Markdown exporter with the given options.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export renders the conversation.
func (e *MarkdownExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}
	if len(conv.Messages) == 0 {
		return nil, fmt.Errorf("conversation has no messages")
	}

	var sb strings.Builder

	title := conv.Title
	if title == "" {
		title = "Untitled conversation"
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(title)))

	if e.options.IncludeMetadata {
		sb.WriteString("## Session Information\n\n")
		sb.WriteString(fmt.Sprintf("- **Created**: %s\n", formatTimestamp(conv.CreatedAt)))
		sb.WriteString(fmt.Sprintf("- **Last Updated**: %s\n", formatTimestamp(conv.UpdatedAt)))
		sb.WriteString(fmt.Sprintf("- **Messages**: %d\n", len(conv.Messages)))
		sb.WriteString("\n---\n\n")
	}

	sb.WriteString("## Conversation\n\n")

	for i, msg := range conv.Messages {
		roleLabel := formatRoleLabel(msg.Role)
		if e.options.IncludeTimestamps {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n",
				roleLabel, formatShortTimestamp(msg.Timestamp)))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", roleLabel))
		}

		content := msg.Content
		if msg.Role == model.RoleTool {
			content = formatToolMessage(msg)
		}
		sb.WriteString(strings.TrimRight(content, "\n"))
		sb.WriteString("\n\n")

		if i < len(conv.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from Comment Sense on %s*\n",
		time.Now().Format("January 2, 2006 at 3:04 PM")))

	return []byte(sb.String()), nil
}

// FileExtension returns the Markdown extension.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

func formatRoleLabel(role model.Role) string {
	switch role {
	case model.RoleUser:
		return "You"
	case model.RoleAssistant:
		return "Assistant"
	case model.RoleSystem:
		return "System"
	case model.RoleTool:
		return "Analysis"
	default:
		return string(role)
	}
}

// formatToolMessage renders a tool invocation as a quoted block so search
// hits and lookups remain readable in the exported document.
func formatToolMessage(msg *model.Message) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("> **%s**", msg.ToolName))
	if msg.ToolInput != "" {
		sb.WriteString(fmt.Sprintf(" — `%s`", msg.ToolInput))
	}
	sb.WriteString("\n")
	if msg.ToolResult != "" {
		for _, line := range strings.Split(strings.TrimRight(msg.ToolResult, "\n"), "\n") {
			sb.WriteString("> " + line + "\n")
		}
	}
	if !msg.IsSuccess {
		sb.WriteString("> _(failed)_\n")
	}
	return sb.String()
}

// escapeMarkdown escapes characters that would change heading rendering.
func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"#", "\\#",
		"*", "\\*",
		"_", "\\_",
		"[", "\\[",
		"]", "\\]",
	)
	return replacer.Replace(s)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatShortTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("15:04")
}
