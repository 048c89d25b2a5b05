package remotive

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const blockElements = "br, p, div, li, ul, ol, h1, h2, h3, h4, h5, h6, tr, td, th, pre, blockquote"

// PlainText returns the visible text of an HTML fragment with whitespace collapsed.
func PlainText(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, noscript").Remove()
	doc.Find(blockElements).AfterHtml(" ")

	return strings.Join(strings.Fields(doc.Find("body").Text()), " "), nil
}
