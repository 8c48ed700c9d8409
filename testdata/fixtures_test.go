package testdata_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/air-gapped/dailypage/internal/enhance"
	"github.com/air-gapped/dailypage/internal/render"
	"github.com/air-gapped/dailypage/internal/site"
)

func newProcessor(t *testing.T) *site.Processor {
	t.Helper()
	p, err := site.NewProcessor(site.ProcessorOptions{Version: "fixtures", Enhance: enhance.DefaultOptions()})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func pageFixtures(t *testing.T) []string {
	t.Helper()
	var pages []string
	err := filepath.WalkDir("fixtures/site", func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && render.IsPage(p) {
			pages = append(pages, p)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) == 0 {
		t.Fatal("no fixture pages found")
	}
	return pages
}

// TestFixtures_Enhance verifies that every fixture page goes through the
// render and enhance pipeline with its sections and day links intact.
func TestFixtures_Enhance(t *testing.T) {
	proc := newProcessor(t)

	for _, p := range pageFixtures(t) {
		t.Run(p, func(t *testing.T) {
			data, err := os.ReadFile(p)
			if err != nil {
				t.Fatal(err)
			}
			rel, err := filepath.Rel("fixtures/site", p)
			if err != nil {
				t.Fatal(err)
			}
			rel = filepath.ToSlash(rel)

			page, err := proc.Process(context.Background(), rel, data, site.PagePath(rel))
			if err != nil {
				t.Fatalf("process failed: %v", err)
			}

			doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.HTML))
			if err != nil {
				t.Fatal(err)
			}

			if doc.Find("#title").Length() != 1 {
				t.Error("expected exactly one #title")
			}
			if page.Report.Sections < 2 {
				t.Errorf("sections = %d, want at least 2", page.Report.Sections)
			}
			if doc.Find("#catalogue li").Length() != page.Report.Sections {
				t.Error("catalogue entries do not match sections")
			}
			if doc.Find(".quick-nav").Length() != 2 {
				t.Error("expected quick-nav at top and bottom")
			}
			if doc.Find("embed").Length() != 0 {
				t.Error("embed left in page")
			}
			if page.Report.Token == "" || !strings.Contains(p, page.Report.Token) {
				t.Errorf("token = %q, want the fixture's day", page.Report.Token)
			}
		})
	}
}

func TestFixtures_Build(t *testing.T) {
	out := t.TempDir()
	summary, err := site.Build(context.Background(), site.Options{
		Root:      "fixtures/site",
		Out:       out,
		Jobs:      4,
		Processor: newProcessor(t),
	})
	if err != nil {
		t.Fatal(err)
	}

	if summary.Pages != len(pageFixtures(t)) {
		t.Errorf("pages = %d, want %d", summary.Pages, len(pageFixtures(t)))
	}
	if summary.Copied != 1 {
		t.Errorf("copied = %d, want 1", summary.Copied)
	}
	for _, name := range []string{
		"tugua/20230615/index.html",
		"2023/20230616/index.html",
		"2023/20230617/index.html",
		"2023/20230618/index.html",
		"img/20230615.png",
	} {
		if _, err := os.Stat(filepath.Join(out, filepath.FromSlash(name))); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}
}
