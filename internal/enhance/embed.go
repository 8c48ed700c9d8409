package enhance

import (
	"github.com/PuerkitoBio/goquery"
)

// insertEmbedFrames replaces every <embed> with an <iframe> carrying the
// same src, and width/height when the embed had them.
func insertEmbedFrames(doc *goquery.Document) int {
	embeds := doc.Find("embed")
	embeds.Each(func(_ int, s *goquery.Selection) {
		var attrs []string
		if src, ok := s.Attr("src"); ok {
			attrs = append(attrs, "src", src)
		}
		if width, ok := s.Attr("width"); ok {
			attrs = append(attrs, "width", width)
		}
		if height, ok := s.Attr("height"); ok {
			attrs = append(attrs, "height", height)
		}
		attrs = append(attrs, "allowfullscreen", "")

		s.ReplaceWithNodes(element("iframe", attrs))
	})
	return embeds.Length()
}
