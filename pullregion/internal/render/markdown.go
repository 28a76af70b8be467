// Package render turns region HTML into Markdown for terminal and MCP
// output.
package render

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// Markdown converts HTML to Markdown. One converter is built up front and
// shared; the converter keeps no per-call state.
type Markdown struct {
	conv *converter.Converter
}

// NewMarkdown creates a Markdown renderer.
func NewMarkdown() *Markdown {
	return &Markdown{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Convert renders html. domain, if set, makes relative links absolute.
func (m *Markdown) Convert(html, domain string) (string, error) {
	var opts []converter.ConvertOptionFunc
	if domain != "" {
		opts = append(opts, converter.WithDomain(domain))
	}
	md, err := m.conv.ConvertString(html, opts...)
	if err != nil {
		return "", fmt.Errorf("render: markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}
