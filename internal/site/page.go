package site

import (
	"context"
	"fmt"
	htmltemplate "html/template"
	"path"
	"strings"
	"time"

	"github.com/air-gapped/dailypage/internal/datetoken"
	"github.com/air-gapped/dailypage/internal/enhance"
	"github.com/air-gapped/dailypage/internal/render"
	"github.com/air-gapped/dailypage/internal/sanitize"
	"github.com/air-gapped/dailypage/internal/template"
)

// ProcessorOptions configures a Processor.
type ProcessorOptions struct {
	Version  string
	Lang     string
	Enhance  enhance.Options
	Template template.Options
}

// Processor turns one page source into an enhanced HTML page. Sources in a
// renderable format are rendered and laid out first. It is safe for
// concurrent use.
type Processor struct {
	version  string
	lang     string
	sanitize bool
	conv     *render.Converter
	tmpl     *template.Renderer
	enh      *enhance.Enhancer
}

// Page is a processed page.
type Page struct {
	HTML     []byte
	Source   render.ContentType
	Report   *enhance.Report
	RenderMs int64
}

// NewProcessor creates a Processor.
func NewProcessor(opts ProcessorOptions) (*Processor, error) {
	tmpl, err := template.NewRenderer(opts.Template)
	if err != nil {
		return nil, fmt.Errorf("page template: %w", err)
	}
	return &Processor{
		version:  opts.Version,
		lang:     opts.Lang,
		sanitize: opts.Enhance.Sanitize,
		conv:     render.NewConverter(),
		tmpl:     tmpl,
		enh:      enhance.New(opts.Enhance),
	}, nil
}

// Process renders (when needed) and enhances src, the content of the file
// name. pagePath is the URL path the page is served under.
func (p *Processor) Process(ctx context.Context, name string, src []byte, pagePath string) (*Page, error) {
	ct := render.DetectFile(name)
	if ct == render.TypeUnsupported {
		return nil, fmt.Errorf("%s: not a page", name)
	}

	start := time.Now()
	doc := src
	if ct.NeedsRender() {
		var err error
		doc, err = p.layout(ct, src, pagePath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	renderMs := time.Since(start).Milliseconds()

	out, report, err := p.enh.Enhance(ctx, doc, pagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return &Page{HTML: out, Source: ct, Report: report, RenderMs: renderMs}, nil
}

func (p *Processor) layout(ct render.ContentType, src []byte, pagePath string) ([]byte, error) {
	fragment, meta, err := p.conv.Convert(ct, src)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", ct.Label(), err)
	}
	if p.sanitize {
		fragment = sanitize.HTML(fragment)
	}

	data := template.PageData{
		Version: p.version,
		Lang:    p.lang,
		Source:  ct,
		Content: htmltemplate.HTML(fragment),
	}
	if meta != nil {
		data.Title = meta.Title
		data.Date = meta.Date
	}
	if data.Date == "" {
		data.Date, _ = datetoken.FromPath(pagePath)
	}

	return p.tmpl.RenderPage(data)
}

// PagePath is the URL path of the page at rel, a slash-separated path
// relative to the site root: "dir/index.html" is served as "/dir/" and
// "dir/20230615.md" as "/dir/20230615".
func PagePath(rel string) string {
	rel = strings.TrimPrefix(path.Clean("/"+rel), "/")
	dir, file := path.Split(rel)
	stem := strings.TrimSuffix(file, path.Ext(file))
	if stem == "index" {
		return "/" + dir
	}
	return "/" + dir + stem
}

// OutputName is the file name a page is written under: renderable sources
// become ".html".
func OutputName(rel string) string {
	if render.DetectFile(rel).NeedsRender() {
		return strings.TrimSuffix(rel, path.Ext(rel)) + ".html"
	}
	return rel
}
