package classify

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	reScript     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	reStyle      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	reTags       = regexp.MustCompile(`<[^>]+>`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

// StripHTML converts an HTML email body to plain text. Embedded markup
// breaks phrase patterns ("thank you for <b>applying</b>"), so tags must
// be gone and whitespace collapsed before any classification runs.
func StripHTML(html string) string {
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		doc.Find("script, style").Remove()
		if text := collapseWhitespace(doc.Text()); text != "" {
			return text
		}
	}
	return stripHTMLFallback(html)
}

// stripHTMLFallback is a regex-based strip for content the HTML parser
// returns nothing useful for
func stripHTMLFallback(html string) string {
	html = reScript.ReplaceAllString(html, "")
	html = reStyle.ReplaceAllString(html, "")
	html = reTags.ReplaceAllString(html, " ")

	html = strings.ReplaceAll(html, "&nbsp;", " ")
	html = strings.ReplaceAll(html, "&amp;", "&")
	html = strings.ReplaceAll(html, "&lt;", "<")
	html = strings.ReplaceAll(html, "&gt;", ">")
	html = strings.ReplaceAll(html, "&quot;", "\"")

	return collapseWhitespace(html)
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}
