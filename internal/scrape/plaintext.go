package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText strips any markup embedded in s and returns its text content.
// Input that is not valid markup comes back unchanged.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}
