package textextract

import (
	stdhtml "html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mementolabs/deckgen/pkg/sanitize"
)

var (
	scriptBlocks   = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleBlocks    = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptBlocks = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	htmlComments   = regexp.MustCompile(`(?s)<!--.*?-->`)
	htmlTags       = regexp.MustCompile(`<[^>]*>`)
)

// FromHTML strips markup from an HTML page and returns sanitized text.
// Script, style and noscript content and comments are removed before
// the text is collected, so none of their contents leak into the
// output. Named and numeric entities are decoded by the parser.
func FromHTML(html, title string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fallbackStrip(html, title)
	}

	doc.Find("script, style, noscript").Remove()
	text := sanitize.Text(doc.Text())
	if text == "" {
		return Placeholder(title)
	}
	return text
}

// fallbackStrip handles markup the HTML parser rejects. Block removal
// runs before tag stripping so script and style bodies never survive
// into the text.
func fallbackStrip(html, title string) string {
	html = scriptBlocks.ReplaceAllString(html, " ")
	html = styleBlocks.ReplaceAllString(html, " ")
	html = noscriptBlocks.ReplaceAllString(html, " ")
	html = htmlComments.ReplaceAllString(html, " ")
	html = htmlTags.ReplaceAllString(html, " ")

	text := sanitize.Text(stdhtml.UnescapeString(html))
	if text == "" {
		return Placeholder(title)
	}
	return text
}
