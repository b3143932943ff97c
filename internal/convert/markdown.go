// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var (
	markdown     = goldmark.New(goldmark.WithExtensions(extension.GFM))
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// MarkdownConverter reads a Markdown file and strips its markup, keeping the
// readable text. Block elements are separated by blank lines; raw HTML is
// dropped.
type MarkdownConverter struct{}

func (MarkdownConverter) Convert(ctx context.Context, path string) (string, error) {
	src, err := TextConverter{}.Convert(ctx, path)
	if err != nil {
		return "", err
	}
	plain, err := PlainText([]byte(src))
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", path, err)
	}
	return plain, nil
}

// PlainText renders Markdown source as plain text.
func PlainText(src []byte) (string, error) {
	doc := markdown.Parser().Parse(text.NewReader(src))

	var b bytes.Buffer
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			switch n.Kind() {
			case ast.KindTextBlock, east.KindTableRow, east.KindTableHeader:
				b.WriteByte('\n')
			case east.KindTableCell:
				b.WriteByte('\t')
			case ast.KindParagraph, ast.KindHeading, ast.KindList, ast.KindBlockquote:
				b.WriteString("\n\n")
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(node.Value)
		case *ast.AutoLink:
			b.Write(node.Label(src))
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(src))
			}
			b.WriteString("\n")
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(blankLinesRe.ReplaceAllString(b.String(), "\n\n")), nil
}
