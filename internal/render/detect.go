package render

import (
	"path"
	"strings"
)

// ContentType is the source format of a page.
type ContentType string

const (
	TypeHTML        ContentType = "html"
	TypeMarkdown    ContentType = "markdown"
	TypeOrg         ContentType = "org"
	TypeAsciiDoc    ContentType = "asciidoc"
	TypeUnsupported ContentType = "unsupported"
)

var extTypes = map[string]ContentType{
	".html":     TypeHTML,
	".htm":      TypeHTML,
	".md":       TypeMarkdown,
	".markdown": TypeMarkdown,
	".mdown":    TypeMarkdown,
	".mkd":      TypeMarkdown,
	".org":      TypeOrg,
	".adoc":     TypeAsciiDoc,
	".asciidoc": TypeAsciiDoc,
	".asc":      TypeAsciiDoc,
}

// SourceExts lists the extensions tried, in order, when a page is
// addressed without one (e.g. /2023/20230615).
var SourceExts = []string{".html", ".md", ".org", ".adoc"}

// DetectFile determines the content type of a file from its name.
func DetectFile(name string) ContentType {
	base := path.Base(name)
	if base == "." || base == "/" {
		return TypeUnsupported
	}
	if ct, ok := extTypes[strings.ToLower(path.Ext(base))]; ok {
		return ct
	}
	return TypeUnsupported
}

// IsPage reports whether a file is a page (HTML or a renderable source).
func IsPage(name string) bool {
	return DetectFile(name) != TypeUnsupported
}

// NeedsRender reports whether the content type has to be converted to HTML
// before it can be enhanced.
func (ct ContentType) NeedsRender() bool {
	switch ct {
	case TypeMarkdown, TypeOrg, TypeAsciiDoc:
		return true
	}
	return false
}

// Label is the human-readable name of the content type.
func (ct ContentType) Label() string {
	switch ct {
	case TypeHTML:
		return "HTML"
	case TypeMarkdown:
		return "Markdown"
	case TypeOrg:
		return "Org"
	case TypeAsciiDoc:
		return "AsciiDoc"
	default:
		return "Unknown"
	}
}
