package enhance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/air-gapped/dailypage/internal/datetoken"
	"github.com/air-gapped/dailypage/internal/logging"
	"github.com/air-gapped/dailypage/internal/sanitize"
	"github.com/air-gapped/dailypage/internal/template"
)

// Labels are the localized strings the enhancer writes into pages.
type Labels struct {
	Prev          string `yaml:"prev"`
	Next          string `yaml:"next"`
	ShowCatalogue string `yaml:"show_catalogue"`
	HideCatalogue string `yaml:"hide_catalogue"`
	Top           string `yaml:"top"`
}

// DefaultLabels returns the stock Chinese labels.
func DefaultLabels() Labels {
	return Labels{
		Prev:          "上一页",
		Next:          "下一页",
		ShowCatalogue: "显示目录",
		HideCatalogue: "隐藏目录",
		Top:           "Top",
	}
}

// Scroll configures the back-to-top link.
type Scroll struct {
	Offset        int           // px scrolled before the link shows
	OffsetOpacity int           // px scrolled before the link fades
	Duration      time.Duration // scroll-to-top animation
}

// Options selects and configures enhancement steps.
type Options struct {
	Labels    Labels
	Scroll    Scroll
	Catalogue bool
	EmbedFix  bool
	QuickNav  bool
	ScrollTop bool
	Sanitize  bool
}

// DefaultOptions enables every step except sanitizing.
func DefaultOptions() Options {
	return Options{
		Labels:    DefaultLabels(),
		Scroll:    Scroll{Offset: 300, OffsetOpacity: 1200, Duration: 700 * time.Millisecond},
		Catalogue: true,
		EmbedFix:  true,
		QuickNav:  true,
		ScrollTop: true,
	}
}

// Step names as they appear in reports and logs.
const (
	StepSanitize  = "sanitize"
	StepCatalogue = "catalogue"
	StepEmbedFix  = "embed-fix"
	StepQuickNav  = "quick-nav"
	StepScrollTop = "scroll-top"
)

// Report describes what Enhance did to one page.
type Report struct {
	Path     string
	Token    string // date token taken from Path, empty if none
	Prev     string
	Next     string
	Sections int
	Embeds   int
	Steps    []string
	NavError error // why quick-nav was skipped
}

// Enhancer applies the page enhancements. It holds no per-page state and
// is safe for concurrent use.
type Enhancer struct {
	opts Options
}

// New creates an Enhancer.
func New(opts Options) *Enhancer {
	return &Enhancer{opts: opts}
}

// Enhance parses page, applies the enabled steps and renders the result.
// pagePath is the page's URL path and only feeds the quick-nav date token.
func (e *Enhancer) Enhance(ctx context.Context, page []byte, pagePath string) ([]byte, *Report, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, nil, fmt.Errorf("parse page: %w", err)
	}

	report, err := e.Apply(ctx, doc, pagePath)
	if err != nil {
		return nil, report, err
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc.Get(0)); err != nil {
		return nil, report, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), report, nil
}

// Apply runs the enabled steps on an already parsed document. Output of an
// earlier run is removed first, so applying twice gives the same page as
// applying once.
func (e *Enhancer) Apply(ctx context.Context, doc *goquery.Document, pagePath string) (*Report, error) {
	report := &Report{Path: pagePath}
	logger := logging.FromContext(ctx)

	clearPrevious(doc)

	if e.opts.Sanitize {
		if err := sanitize.Document(doc); err != nil {
			return report, err
		}
		report.Steps = append(report.Steps, StepSanitize)
	}

	if e.opts.Catalogue {
		report.Sections = insertCatalogue(doc, e.opts.Labels)
		if report.Sections > 0 {
			report.Steps = append(report.Steps, StepCatalogue)
		}
	}

	if e.opts.EmbedFix {
		report.Embeds = insertEmbedFrames(doc)
		if report.Embeds > 0 {
			report.Steps = append(report.Steps, StepEmbedFix)
		}
	}

	if e.opts.QuickNav {
		token, prev, next, err := insertQuickNav(doc, pagePath, e.opts.Labels)
		if err != nil {
			report.NavError = err
			if errors.Is(err, datetoken.ErrMalformed) {
				logger.Warn("quick-nav skipped", "path", pagePath, "error", err)
			}
		} else {
			report.Token, report.Prev, report.Next = token, prev, next
			report.Steps = append(report.Steps, StepQuickNav)
		}
	}

	if e.opts.ScrollTop {
		insertScrollTop(doc, e.opts.Labels.Top, e.opts.Scroll)
		report.Steps = append(report.Steps, StepScrollTop)
	}

	if len(report.Steps) > 0 {
		injectAssets(doc)
	}

	return report, nil
}

// clearPrevious removes everything an earlier run inserted.
func clearPrevious(doc *goquery.Document) {
	doc.Find("." + catalogueClass).Remove()
	doc.Find("[" + markerAttr + "]").Remove()
	doc.Find("#" + template.ScriptID).Remove()
	doc.Find("#" + template.StyleID).Remove()
}

// injectAssets appends the shared stylesheet and page script to <head>.
func injectAssets(doc *goquery.Document) {
	head := doc.Find("head")
	if head.Length() == 0 {
		return
	}
	for _, asset := range template.HeadAssets() {
		head.AppendHtml(asset)
	}
}
