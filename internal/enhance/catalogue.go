package enhance

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const catalogueClass = "dailypage-catalogue"

// insertCatalogue builds the table of contents from every .section and
// places it right after #title. It returns the number of entries; nothing
// is inserted when there are none or the page has no #title.
func insertCatalogue(doc *goquery.Document, labels Labels) int {
	list := element("ul", []string{"id", "catalogue"})
	count := 0

	doc.Find(".section").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		title := strings.TrimSpace(s.ChildrenFiltered(".subtitle").Text())
		list.AppendChild(element("li", nil,
			element("a", []string{"href", "#" + id}, text(title)),
		))
		count++
	})

	title := doc.Find("#title").First()
	if count == 0 || title.Length() == 0 {
		return 0
	}

	// The catalogue starts out shown, so the toggle offers to hide it.
	toggle := element("a", []string{
		"id", "show_hide",
		"href", "javascript:hideCatalogue()",
		"data-show-label", labels.ShowCatalogue,
		"data-hide-label", labels.HideCatalogue,
	}, text(labels.HideCatalogue))

	title.AfterNodes(element("div", []string{"class", catalogueClass}, toggle, list))
	return count
}
