package services

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// descriptionRenderer converts task description Markdown to HTML for the
// preview endpoint. GFM covers the task-list and table syntax people paste in.
var descriptionRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderMarkdown converts a Markdown task description to HTML.
func RenderMarkdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := descriptionRenderer.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}
