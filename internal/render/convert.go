package render

import "fmt"

// Converter dispatches a page source to the renderer for its format.
type Converter struct {
	md   *MarkdownRenderer
	org  *OrgRenderer
	adoc *AsciiDocRenderer
}

// NewConverter creates a converter with all source renderers.
func NewConverter() *Converter {
	return &Converter{
		md:   NewMarkdownRenderer(),
		org:  NewOrgRenderer(),
		adoc: NewAsciiDocRenderer(),
	}
}

// Convert renders source of the given type to an HTML fragment.
func (c *Converter) Convert(ct ContentType, source []byte) ([]byte, *Meta, error) {
	switch ct {
	case TypeMarkdown:
		return c.md.Render(source)
	case TypeOrg:
		return c.org.Render(source)
	case TypeAsciiDoc:
		return c.adoc.Render(source)
	default:
		return nil, nil, fmt.Errorf("no renderer for content type %q", ct)
	}
}
