package sanitize

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// policy is bluemonday's UGC policy widened for daily pages: ids and classes
// carry the section structure, and embeds/iframes carry the videos the
// enhancer turns into frames.
var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("id", "class").Globally()
	p.AllowDataAttributes()
	p.AllowElements("embed", "iframe", "time")
	p.AllowAttrs("src", "width", "height").OnElements("embed", "iframe")
	p.AllowAttrs("allowfullscreen", "frameborder").OnElements("iframe")
	p.AllowAttrs("datetime").OnElements("time")
	return p
}

// HTML strips scripts, event handlers and other unsafe markup from an HTML
// fragment.
func HTML(input []byte) []byte {
	return policy.SanitizeBytes(input)
}

// Document sanitizes a parsed page in place: <head> loses its scripts and
// the <body> content is passed through the policy. It runs before the
// enhancer adds its own script, so that script is never stripped.
func Document(doc *goquery.Document) error {
	doc.Find("head script, head noscript").Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		return nil
	}
	inner, err := body.Html()
	if err != nil {
		return fmt.Errorf("sanitize: read body: %w", err)
	}
	body.SetHtml(policy.Sanitize(inner))

	// Event handlers are never allowed by the policy; drop them from
	// <body> itself too.
	var handlers []string
	for _, a := range body.Get(0).Attr {
		if strings.HasPrefix(strings.ToLower(a.Key), "on") {
			handlers = append(handlers, a.Key)
		}
	}
	for _, key := range handlers {
		body.RemoveAttr(key)
	}
	return nil
}
