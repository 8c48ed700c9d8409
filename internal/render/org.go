package render

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/niklasfasching/go-org/org"
)

var orgOptions = strings.NewReplacer("toc:t", "toc:nil", "title:t", "title:nil")

// OrgRenderer renders Org-mode content to HTML.
type OrgRenderer struct{}

// NewOrgRenderer creates a new Org-mode renderer.
func NewOrgRenderer() *OrgRenderer {
	return &OrgRenderer{}
}

// Render converts Org-mode source to HTML. Top-level headlines become <h2>
// so that each one turns into a page section.
func (r *OrgRenderer) Render(source []byte) ([]byte, *Meta, error) {
	conf := org.New()
	conf.Log = log.New(io.Discard, "", 0)
	// The page template writes the title and the catalogue itself.
	conf.DefaultSettings["OPTIONS"] = orgOptions.Replace(conf.DefaultSettings["OPTIONS"])

	writer := org.NewHTMLWriter()
	writer.TopLevelHLevel = 2

	doc := conf.Parse(bytes.NewReader(source), "")
	htmlStr, err := doc.Write(writer)
	if err != nil {
		return nil, nil, fmt.Errorf("render org: %w", err)
	}

	meta := &Meta{
		Title: strings.TrimSpace(doc.BufferSettings["TITLE"]),
		Date:  normalizeDate(orgDate(doc.BufferSettings["DATE"])),
	}

	return []byte(htmlStr), meta, nil
}

// orgDate strips the <...> or [...] brackets of an Org timestamp.
func orgDate(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "<[")
	if i := strings.IndexAny(s, " >]"); i >= 0 {
		s = s[:i]
	}
	return s
}
