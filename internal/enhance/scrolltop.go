package enhance

import (
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

// insertScrollTop appends the back-to-top link to <body>. Its behavior is
// driven by the page script through the data attributes.
func insertScrollTop(doc *goquery.Document, label string, s Scroll) {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return
	}
	body.AppendNodes(element("a", []string{
		"href", "#0",
		"class", "cd-top",
		markerAttr, "scroll-top",
		"data-offset", strconv.Itoa(s.Offset),
		"data-offset-opacity", strconv.Itoa(s.OffsetOpacity),
		"data-duration", strconv.FormatInt(s.Duration.Milliseconds(), 10),
	}, text(label)))
}
