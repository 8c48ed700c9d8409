package enhance

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/air-gapped/dailypage/internal/datetoken"
	"github.com/air-gapped/dailypage/internal/logging"
	"github.com/air-gapped/dailypage/internal/template"
)

const dailyPage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>【喷嚏图卦20230615】</title></head>
<body>
<h1 id="title">【喷嚏图卦20230615】</h1>
<div class="section" id="01">
  <p class="subtitle">  【01】第一条  </p>
  <p>text</p>
</div>
<div class="section" id="02">
  <p class="subtitle">【02】第二条</p>
  <embed src="https://player.example.com/v/1" width="480" height="400">
</div>
<div class="section" id="03">
  <p class="subtitle">【03】A &amp; B</p>
  <embed src="https://player.example.com/v/2">
</div>
</body>
</html>`

func enhance(t *testing.T, opts Options, page, pagePath string) (*goquery.Document, *Report) {
	t.Helper()
	out, report, err := New(opts).Enhance(context.Background(), []byte(page), pagePath)
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(out))
	require.NoError(t, err)
	return doc, report
}

func TestEnhance_AllSteps(t *testing.T) {
	doc, report := enhance(t, DefaultOptions(), dailyPage, "/tugua/2023/20230615/")

	assert.Equal(t, "20230615", report.Token)
	assert.Equal(t, "20230614", report.Prev)
	assert.Equal(t, "20230616", report.Next)
	assert.Equal(t, 3, report.Sections)
	assert.Equal(t, 2, report.Embeds)
	assert.Equal(t, []string{StepCatalogue, StepEmbedFix, StepQuickNav, StepScrollTop}, report.Steps)
	assert.NoError(t, report.NavError)

	assert.Equal(t, 1, doc.Find("#"+template.ScriptID).Length())
	assert.Equal(t, 1, doc.Find("#"+template.StyleID).Length())
}

func TestCatalogue(t *testing.T) {
	doc, _ := enhance(t, DefaultOptions(), dailyPage, "/20230615/")

	box := doc.Find("#title").Next()
	require.True(t, box.HasClass(catalogueClass), "catalogue should follow #title")

	toggle := box.Find("#show_hide")
	assert.Equal(t, "隐藏目录", toggle.Text())
	href, _ := toggle.Attr("href")
	assert.Equal(t, "javascript:hideCatalogue()", href)
	show, _ := toggle.Attr("data-show-label")
	assert.Equal(t, "显示目录", show)

	var hrefs, texts []string
	box.Find("#catalogue li a").Each(func(_ int, a *goquery.Selection) {
		h, _ := a.Attr("href")
		hrefs = append(hrefs, h)
		texts = append(texts, a.Text())
	})
	assert.Equal(t, []string{"#01", "#02", "#03"}, hrefs)
	assert.Equal(t, []string{"【01】第一条", "【02】第二条", "【03】A & B"}, texts)
}

func TestCatalogue_NoSections(t *testing.T) {
	page := `<html><body><h1 id="title">T</h1><p>nothing</p></body></html>`
	doc, report := enhance(t, DefaultOptions(), page, "/20230615/")

	assert.Equal(t, 0, report.Sections)
	assert.NotContains(t, report.Steps, StepCatalogue)
	assert.Equal(t, 0, doc.Find("#catalogue").Length())
	assert.Equal(t, 0, doc.Find("#show_hide").Length())
}

func TestCatalogue_NoTitle(t *testing.T) {
	page := `<html><body><div class="section" id="x"><p class="subtitle">S</p></div></body></html>`
	doc, report := enhance(t, DefaultOptions(), page, "/20230615/")

	assert.Equal(t, 0, report.Sections)
	assert.Equal(t, 0, doc.Find("#catalogue").Length())
}

func TestEmbedFix(t *testing.T) {
	doc, _ := enhance(t, DefaultOptions(), dailyPage, "/20230615/")

	assert.Equal(t, 0, doc.Find("embed").Length())

	frames := doc.Find("iframe")
	require.Equal(t, 2, frames.Length())

	first := frames.Eq(0)
	assert.Equal(t, "https://player.example.com/v/1", first.AttrOr("src", ""))
	assert.Equal(t, "480", first.AttrOr("width", ""))
	assert.Equal(t, "400", first.AttrOr("height", ""))
	_, ok := first.Attr("allowfullscreen")
	assert.True(t, ok)

	second := frames.Eq(1)
	assert.Equal(t, "https://player.example.com/v/2", second.AttrOr("src", ""))
	_, hasWidth := second.Attr("width")
	_, hasHeight := second.Attr("height")
	assert.False(t, hasWidth, "width only when the embed had one")
	assert.False(t, hasHeight, "height only when the embed had one")

	assert.Equal(t, "02", first.Parent().AttrOr("id", ""), "iframe should take the embed's place")
}

func TestQuickNav(t *testing.T) {
	doc, _ := enhance(t, DefaultOptions(), dailyPage, "/blog/2023/20230615/")

	navs := doc.Find("." + quickNavClass)
	require.Equal(t, 2, navs.Length())

	body := doc.Find("body")
	assert.True(t, body.Children().First().Is("."+quickNavClass), "one nav at the top of body")
	assert.True(t, doc.Find("a.cd-top").Prev().Is("."+quickNavClass), "one nav at the bottom, before the top link")

	navs.Each(func(_ int, nav *goquery.Selection) {
		prev := nav.Find(".quick-nav-prev")
		next := nav.Find(".quick-nav-next")
		assert.Equal(t, "../20230614", prev.AttrOr("href", ""))
		assert.Equal(t, "上一页", prev.Text())
		assert.Equal(t, "../20230616", next.AttrOr("href", ""))
		assert.Equal(t, "下一页", next.Text())
	})
}

func TestQuickNav_MonthAndYearRollover(t *testing.T) {
	_, report := enhance(t, DefaultOptions(), dailyPage, "/20240101")
	assert.Equal(t, "20231231", report.Prev)
	assert.Equal(t, "20240102", report.Next)

	_, report = enhance(t, DefaultOptions(), dailyPage, "/20240228/")
	assert.Equal(t, "20240229", report.Next)
}

func TestQuickNav_NoToken(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	ctx := logging.WithLogger(context.Background(), logger)

	out, report, err := New(DefaultOptions()).Enhance(ctx, []byte(dailyPage), "/about/")
	require.NoError(t, err)

	assert.ErrorIs(t, report.NavError, datetoken.ErrMalformed)
	assert.Empty(t, report.Token)
	assert.NotContains(t, report.Steps, StepQuickNav)
	assert.NotContains(t, string(out), quickNavClass+`"`)
	assert.Contains(t, logs.String(), "quick-nav skipped")
}

func TestQuickNav_CustomLabels(t *testing.T) {
	opts := DefaultOptions()
	opts.Labels.Prev = "« prev"
	opts.Labels.Next = "next »"
	doc, _ := enhance(t, opts, dailyPage, "/20230615/")

	assert.Equal(t, "« prev", doc.Find(".quick-nav-prev").First().Text())
	assert.Equal(t, "next »", doc.Find(".quick-nav-next").First().Text())
}

func TestScrollTop(t *testing.T) {
	opts := DefaultOptions()
	opts.Scroll = Scroll{Offset: 100, OffsetOpacity: 900, Duration: 250 * time.Millisecond}
	doc, _ := enhance(t, opts, dailyPage, "/20230615/")

	top := doc.Find("a.cd-top")
	require.Equal(t, 1, top.Length())
	assert.True(t, top.Is("body > a:last-child"))
	assert.Equal(t, "#0", top.AttrOr("href", ""))
	assert.Equal(t, "Top", top.Text())
	assert.Equal(t, "100", top.AttrOr("data-offset", ""))
	assert.Equal(t, "900", top.AttrOr("data-offset-opacity", ""))
	assert.Equal(t, "250", top.AttrOr("data-duration", ""))
}

func TestEnhance_StepsDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.Catalogue = false
	opts.EmbedFix = false
	opts.QuickNav = false
	opts.ScrollTop = false

	doc, report := enhance(t, opts, dailyPage, "/20230615/")

	assert.Empty(t, report.Steps)
	assert.Equal(t, 2, doc.Find("embed").Length())
	assert.Equal(t, 0, doc.Find("#catalogue, .quick-nav, .cd-top").Length())
	assert.Equal(t, 0, doc.Find("#"+template.ScriptID).Length(), "no script when nothing was added")
}

func TestEnhance_Idempotent(t *testing.T) {
	e := New(DefaultOptions())
	once, _, err := e.Enhance(context.Background(), []byte(dailyPage), "/20230615/")
	require.NoError(t, err)
	twice, _, err := e.Enhance(context.Background(), once, "/20230615/")
	require.NoError(t, err)

	assert.Equal(t, string(once), string(twice))
	assert.Equal(t, 2, strings.Count(string(twice), `class="quick-nav"`))
	assert.Equal(t, 1, strings.Count(string(twice), `id="catalogue"`))
	assert.Equal(t, 1, strings.Count(string(twice), `class="cd-top"`))
}

func TestEnhance_KeepsAuthorMarkupWithSameClasses(t *testing.T) {
	page := strings.Replace(dailyPage, "<body>",
		`<body><div class="quick-nav" id="author-nav"><a href="/archive">archive</a></div>`+
			`<a class="cd-top" id="author-top" href="#">up</a>`, 1)

	e := New(DefaultOptions())
	once, _, err := e.Enhance(context.Background(), []byte(page), "/20230615/")
	require.NoError(t, err)
	twice, _, err := e.Enhance(context.Background(), once, "/20230615/")
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(twice))
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find("#author-nav").Length())
	assert.Equal(t, 1, doc.Find("#author-top").Length())
	assert.Equal(t, 2, doc.Find(`[data-dailypage="quick-nav"]`).Length())
	assert.Equal(t, 1, doc.Find(`[data-dailypage="scroll-top"]`).Length())
	assert.Equal(t, string(once), string(twice))
}

func TestEnhance_RerunPicksUpNewLabels(t *testing.T) {
	once, _, err := New(DefaultOptions()).Enhance(context.Background(), []byte(dailyPage), "/20230615/")
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Labels.HideCatalogue = "Hide"
	out, _, err := New(opts).Enhance(context.Background(), once, "/20230615/")
	require.NoError(t, err)

	assert.Contains(t, string(out), ">Hide</a>")
	assert.NotContains(t, string(out), "隐藏目录")
}

func TestEnhance_Sanitize(t *testing.T) {
	page := strings.Replace(dailyPage, `<p>text</p>`, `<p onclick="evil()">text</p><script>alert(1)</script>`, 1)

	opts := DefaultOptions()
	opts.Sanitize = true
	out, report, err := New(opts).Enhance(context.Background(), []byte(page), "/20230615/")
	require.NoError(t, err)

	s := string(out)
	assert.NotContains(t, s, "alert(1)")
	assert.NotContains(t, s, "onclick")
	assert.Contains(t, s, `<script id="`+template.ScriptID+`">`, "own script is added after sanitizing")
	assert.Equal(t, StepSanitize, report.Steps[0])
	assert.Equal(t, 3, report.Sections)
}

func TestEnhance_EscapesText(t *testing.T) {
	page := `<html><body><h1 id="title">T</h1><div class="section" id="a&quot;b"><p class="subtitle">&lt;b&gt;x&lt;/b&gt;</p></div></body></html>`
	out, _, err := New(DefaultOptions()).Enhance(context.Background(), []byte(page), "/20230615/")
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, `href="#a&#34;b"`)
	assert.Contains(t, s, `&lt;b&gt;x&lt;/b&gt;</a>`)
}

func TestNavHref(t *testing.T) {
	assert.Equal(t, "../20230614", NavHref("20230614"))
}
