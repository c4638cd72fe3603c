// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"

	"github.com/commentsense/sense-tui/internal/model"
)

// JSONExporter renders a conversation as indented JSON. The message schema
// mirrors the model's JSON tags, so an export round-trips through the same
// struct definitions.
type JSONExporter struct{}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Export renders the conversation.
func (e *JSONExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}
	return json.MarshalIndent(conv, "", "  ")
}

// FileExtension returns the JSON extension.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}
