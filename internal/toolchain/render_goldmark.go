package toolchain

import (
	"bytes"
	"context"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

// GoldmarkRenderer renders document bodies in-process and is the default
// renderer. No JavaScript runtime is involved: component tags pass through
// as raw HTML and the client bundle hydrates them in the browser.
type GoldmarkRenderer struct {
	md goldmark.Markdown
}

func NewGoldmarkRenderer() *GoldmarkRenderer {
	return &GoldmarkRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			// Raw HTML must survive so component tags reach the client.
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

func (g *GoldmarkRenderer) Render(_ context.Context, req RenderRequest) (string, error) {
	_, body, _, err := frontmatter.Split(req.Source)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrRenderFailed, req.Name, err)
	}

	var buf bytes.Buffer
	if err := g.md.Convert(body, &buf); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrRenderFailed, req.Name, err)
	}
	return buf.String(), nil
}
