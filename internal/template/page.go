package template

import (
	"bytes"
	"fmt"
	"html"
	htmltemplate "html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"
	gohtml "golang.org/x/net/html"

	"github.com/air-gapped/dailypage/internal/datetoken"
	"github.com/air-gapped/dailypage/internal/render"
)

// PageData holds everything needed to lay out a rendered daily page.
type PageData struct {
	Version string
	Lang    string
	Title   string
	Date    string // date token, shown under the title when set
	Source  render.ContentType
	Content htmltemplate.HTML
}

// ErrorData holds data for error pages.
type ErrorData struct {
	Version    string
	Path       string
	StatusCode int
	ErrorType  string
	Message    string
}

// Options configures a Renderer.
type Options struct {
	DateFormat     string // datetoken.Format pattern for the date line
	HighlightStyle string // chroma style name
}

// Renderer renders full HTML pages.
type Renderer struct {
	dateFormat   string
	highlightCSS string
}

// NewRenderer creates a template renderer.
func NewRenderer(opts Options) (*Renderer, error) {
	if opts.DateFormat == "" {
		opts.DateFormat = "yyyy-MM-dd"
	}
	css, err := chromaCSS(opts.HighlightStyle)
	if err != nil {
		return nil, err
	}
	return &Renderer{dateFormat: opts.DateFormat, highlightCSS: css}, nil
}

// RenderPage lays out a rendered source as a daily page: the title as
// <h1 id="title">, then one <div class="section"> per level-2 heading.
func (r *Renderer) RenderPage(data PageData) ([]byte, error) {
	content, title, sections, err := sectionize(string(data.Content), data.Title)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = data.Date
	}
	if title == "" {
		title = "untitled"
	}
	lang := data.Lang
	if lang == "" {
		lang = "zh-CN"
	}

	var buf bytes.Buffer

	fmt.Fprintf(&buf, `<!DOCTYPE html>
<html lang="%s"
      data-dailypage-version="%s"
      data-source="%s">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <meta name="generator" content="dailypage %s">
  <title>%s</title>
  <link rel="icon" type="image/svg+xml" href="data:image/svg+xml,%s">
`,
		html.EscapeString(lang),
		html.EscapeString(data.Version),
		html.EscapeString(string(data.Source)),
		html.EscapeString(data.Version),
		html.EscapeString(title),
		faviconSVG,
	)

	writeArticleCSS(&buf, r.highlightCSS)

	fmt.Fprintf(&buf, "</head>\n<body>\n")
	fmt.Fprintf(&buf, "  <h1 id=\"title\">%s</h1>\n", html.EscapeString(title))

	if t, err := datetoken.Parse(data.Date); err == nil {
		fmt.Fprintf(&buf, "  <time id=\"date\" datetime=\"%s\">%s</time>\n",
			datetoken.Format(t, "yyyy-MM-dd"),
			html.EscapeString(datetoken.Format(t, r.dateFormat)),
		)
	}

	fmt.Fprintf(&buf, "  <div id=\"content\" data-section-count=\"%d\">\n%s\n  </div>\n", sections, content)
	fmt.Fprintf(&buf, "</body>\n</html>\n")

	return buf.Bytes(), nil
}

// sectionize groups the fragment into sections and pulls out the title
// heading. Level-2 headings that sit directly in the fragment start a new
// section running to the next one, as do level-2 headings sharing one
// wrapper. A lone nested level-2 heading turns its wrapper element
// (AsciiDoc's sect1, Org's outline container) into the section. Sections get 1-based two-digit ids and the heading class
// "subtitle".
func sectionize(fragment, title string) (string, string, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<div id="dailypage-root">` + fragment + `</div>`))
	if err != nil {
		return "", "", 0, fmt.Errorf("parse content: %w", err)
	}
	root := doc.Find("#dailypage-root")

	if h1 := root.Find("h1").First(); h1.Length() > 0 {
		text := strings.TrimSpace(h1.Text())
		if title == "" {
			title = text
		}
		if text == title {
			h1.Remove()
		}
	}

	headings := root.Find("h2")
	perParent := make(map[*gohtml.Node]int)
	headings.Each(func(_ int, h *goquery.Selection) {
		perParent[h.Get(0).Parent]++
	})

	n := 0
	headings.Each(func(_ int, h *goquery.Selection) {
		n++
		id := fmt.Sprintf("%02d", n)
		h.AddClass("subtitle")

		parent := h.Parent()
		if parent.IsSelection(root) || perParent[parent.Get(0)] > 1 {
			wrapSection(h.Get(0), id)
			return
		}
		parent.AddClass("section")
		parent.SetAttr("id", id)
	})

	content, err := root.Html()
	if err != nil {
		return "", "", 0, fmt.Errorf("render content: %w", err)
	}
	return content, title, n, nil
}

// wrapSection moves heading and its following siblings, up to the next
// <h2>, into a new <div class="section">.
func wrapSection(heading *gohtml.Node, id string) {
	parent := heading.Parent
	div := &gohtml.Node{
		Type: gohtml.ElementNode,
		Data: "div",
		Attr: []gohtml.Attribute{
			{Key: "class", Val: "section"},
			{Key: "id", Val: id},
		},
	}
	parent.InsertBefore(div, heading)

	for c := heading; c != nil; {
		next := c.NextSibling
		if c != heading && c.Type == gohtml.ElementNode && c.Data == "h2" {
			break
		}
		parent.RemoveChild(c)
		div.AppendChild(c)
		c = next
	}
}

// RenderError produces an error page.
func (r *Renderer) RenderError(data ErrorData) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, `<!DOCTYPE html>
<html lang="en"
      data-dailypage-version="%s"
      data-error-type="%s">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Error</title>
  <link rel="icon" type="image/svg+xml" href="data:image/svg+xml,%s">
`,
		html.EscapeString(data.Version),
		html.EscapeString(data.ErrorType),
		faviconSVG,
	)
	writeArticleCSS(&buf, "")

	fmt.Fprintf(&buf, `</head>
<body>
  <div id="error"
       data-status-code="%d"
       data-error-message="%s">
    <h1>%d %s</h1>
    <p>%s</p>
    <p><code>%s</code></p>
  </div>
</body>
</html>
`,
		data.StatusCode, html.EscapeString(data.Message),
		data.StatusCode, html.EscapeString(statusText(data.StatusCode)),
		html.EscapeString(data.Message),
		html.EscapeString(data.Path),
	)

	return buf.Bytes()
}

func statusText(code int) string {
	switch code {
	case 400:
		return "Bad Request"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 413:
		return "Payload Too Large"
	case 500:
		return "Internal Server Error"
	default:
		return "Error"
	}
}
