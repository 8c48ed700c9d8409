package template

import (
	"bytes"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

// faviconSVG is an inline SVG favicon, a tear-off calendar.
const faviconSVG = `%3Csvg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 100 100'%3E%3Ctext y='.9em' font-size='90'%3E📆%3C/text%3E%3C/svg%3E`

// chromaCSS renders the class-based highlighting rules for the named chroma
// style, falling back to chroma's default style.
func chromaCSS(style string) (string, error) {
	var buf bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&buf, styles.Get(style)); err != nil {
		return "", fmt.Errorf("chroma css: %w", err)
	}
	return buf.String(), nil
}

func writeLayoutCSS(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "  <style id=\"%s\">\n", StyleID)
	buf.WriteString(layoutCSS)
	buf.WriteString("  </style>\n")
}

func writeArticleCSS(buf *bytes.Buffer, highlight string) {
	buf.WriteString("  <style>\n")
	buf.WriteString(articleCSS)
	if highlight != "" {
		buf.WriteString(highlight)
	}
	buf.WriteString("  </style>\n")
}

const layoutCSS = `
    /* dailypage: catalogue */
    #show_hide { cursor: pointer; font-size: 0.9em; }
    #catalogue { margin: 0.5em 0 1em; padding-left: 1.5em; }
    #catalogue li { margin: 0.15em 0; }

    /* dailypage: quick nav */
    .quick-nav { display: flex; justify-content: space-between; margin: 1em 0; }
    .quick-nav a { text-decoration: none; }
    .quick-nav a:hover { text-decoration: underline; }

    /* dailypage: back to top */
    .cd-top {
      display: inline-block; position: fixed; right: 10px; bottom: 10px; z-index: 10;
      height: 40px; width: 40px; line-height: 40px; text-align: center;
      border-radius: 4px; background: rgba(232, 98, 86, 0.8); color: #fff;
      text-decoration: none; font-size: 12px;
      visibility: hidden; opacity: 0;
      transition: opacity .3s 0s, visibility 0s .3s;
    }
    .cd-top.cd-is-visible, .cd-top.cd-fade-out, .no-touch .cd-top:hover {
      transition: opacity .3s 0s, visibility 0s 0s;
    }
    .cd-top.cd-is-visible { visibility: visible; opacity: 1; }
    .cd-top.cd-fade-out { opacity: .5; }
    .no-touch .cd-top:hover { background-color: #e86256; opacity: 1; }
`

const articleCSS = `
    body {
      margin: 0 auto; max-width: 960px; padding: 0 16px 48px;
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', 'PingFang SC', 'Microsoft YaHei', sans-serif;
      line-height: 1.6;
    }
    #title { margin-top: 0.8em; }
    #date { color: #656d76; font-size: 0.9em; }
    .section { margin: 2em 0; }
    .section .subtitle { font-size: 1.2em; font-weight: bold; }
    img, iframe { max-width: 100%; }
    pre.chroma { padding: 12px; overflow-x: auto; border-radius: 6px; }
`
