package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// Meta holds metadata extracted during rendering.
type Meta struct {
	Title string // from front matter, #+TITLE, document title or first H1
	Date  string // date token from front matter, empty if absent or unparsable
}

// MarkdownRenderer renders markdown content to HTML.
type MarkdownRenderer struct {
	md goldmark.Markdown
}

// NewMarkdownRenderer creates a markdown renderer with GFM, footnotes,
// definition lists and chroma highlighting. Raw HTML is kept so that
// <embed> and friends survive to the enhancer.
func NewMarkdownRenderer() *MarkdownRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.DefinitionList,
			extension.Typographer,
			&ChromaHighlighting{},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)

	return &MarkdownRenderer{md: md}
}

// Render converts markdown source to HTML and extracts metadata.
func (r *MarkdownRenderer) Render(source []byte) ([]byte, *Meta, error) {
	content, fm, err := stripFrontmatter(source)
	if err != nil {
		return nil, nil, err
	}

	doc := r.md.Parser().Parse(text.NewReader(content))

	meta := &Meta{Title: fm.Title, Date: normalizeDate(fm.Date)}
	if meta.Title == "" {
		meta.Title = firstH1(doc, content)
	}

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, content, doc); err != nil {
		return nil, nil, fmt.Errorf("render markdown: %w", err)
	}

	return buf.Bytes(), meta, nil
}

// firstH1 returns the plain text of the first level-1 heading.
func firstH1(doc ast.Node, source []byte) string {
	var title string
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 1 {
			return ast.WalkContinue, nil
		}
		var sb strings.Builder
		for c := h.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				sb.Write(t.Segment.Value(source))
			}
		}
		title = sb.String()
		return ast.WalkStop, nil
	})
	return title
}

var frontmatterRe = regexp.MustCompile(`(?s)\A---\r?\n(.+?)\r?\n---\r?\n`)

type frontmatter struct {
	Title string `yaml:"title"`
	Date  string `yaml:"date"`
}

// stripFrontmatter removes YAML front matter and decodes the fields pages use.
func stripFrontmatter(source []byte) ([]byte, frontmatter, error) {
	var fm frontmatter
	match := frontmatterRe.FindSubmatch(source)
	if match == nil {
		return source, fm, nil
	}
	if err := yaml.Unmarshal(match[1], &fm); err != nil {
		return nil, fm, fmt.Errorf("parse front matter: %w", err)
	}
	return source[len(match[0]):], fm, nil
}

// normalizeDate turns "2023-06-15", "2023/06/15" or "20230615" into a date
// token. Anything else yields "".
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 10 && (s[4] == '-' || s[4] == '/') {
		s = s[:4] + s[5:7] + s[8:10]
	}
	if len(s) != 8 {
		return ""
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return ""
		}
	}
	return s
}
