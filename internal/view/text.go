package view

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

// PlainText flattens a markup fragment to its visible text with collapsed
// whitespace. Unparseable input is returned as is.
func PlainText(markup string) string {
	if !strings.ContainsAny(markup, "<&") {
		return strings.Join(strings.Fields(markup), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		log.Warnf("Failed to parse markup for text extraction: %v", err)
		return markup
	}

	var parts []string
	var walk func(sel *goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, s *goquery.Selection) {
			switch goquery.NodeName(s) {
			case "#text":
				parts = append(parts, s.Text())
			case "script", "style":
			default:
				walk(s)
			}
		})
	}
	walk(doc.Find("body"))

	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
