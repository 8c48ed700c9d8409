package enhance

import (
	"errors"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/air-gapped/dailypage/internal/datetoken"
)

const quickNavClass = "quick-nav"

// markerAttr tags the nav blocks and the top link this package inserts, so a
// rerun removes them without touching author markup that reuses the classes.
const markerAttr = "data-dailypage"

var errNoBody = errors.New("page has no body")

// insertQuickNav puts previous/next day links at the top and the bottom of
// <body>. The links are relative to the page: ../<token>.
func insertQuickNav(doc *goquery.Document, pagePath string, labels Labels) (token, prev, next string, err error) {
	token, err = datetoken.FromPath(pagePath)
	if err != nil {
		return "", "", "", err
	}
	prev, next, err = datetoken.Neighbors(token)
	if err != nil {
		return "", "", "", err
	}

	body := doc.Find("body").First()
	if body.Length() == 0 {
		return "", "", "", errNoBody
	}

	body.PrependNodes(quickNav(prev, next, labels))
	body.AppendNodes(quickNav(prev, next, labels))
	return token, prev, next, nil
}

// NavHref is the link target of the page for token, relative to a sibling
// page.
func NavHref(token string) string {
	return "../" + token
}

func quickNav(prev, next string, labels Labels) *html.Node {
	return element("div", []string{"class", quickNavClass, markerAttr, "quick-nav"},
		element("a", []string{"class", "quick-nav-prev", "rel", "prev", "href", NavHref(prev)}, text(labels.Prev)),
		element("a", []string{"class", "quick-nav-next", "rel", "next", "href", NavHref(next)}, text(labels.Next)),
	)
}
