// Package render converts issue bodies from markdown into safe HTML.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	mdhtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer converts markdown into HTML ready for display.
type Renderer interface {
	Render(ctx context.Context, markdown string) (template.HTML, error)
}

// Markdown renders GitHub-flavored markdown and sanitizes the output with a
// user-generated-content policy. Script content never survives sanitizing.
type Markdown struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewMarkdown returns the markdown renderer used for issue bodies.
func NewMarkdown() *Markdown {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre")
	policy.RequireNoReferrerOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &Markdown{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Linkify),
			// Raw HTML in bodies is kept so GitHub-style <details> etc. render;
			// the policy strips anything unsafe.
			goldmark.WithRendererOptions(mdhtml.WithUnsafe()),
		),
		policy: policy,
	}
}

// Render converts markdown. Blank input renders to an empty fragment.
func (r *Markdown) Render(ctx context.Context, markdown string) (template.HTML, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(markdown) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes())), nil
}
