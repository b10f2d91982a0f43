// Package scrape parses catalog HTML into raw product data using goquery.
package scrape

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/printdhruv/adafruit-crawler/internal/catalog"
)

// categoryPathFragment marks hyperlinks pointing at a category page.
const categoryPathFragment = "/category"

// Discovery is the result of scanning the master categories page.
type Discovery struct {
	// Links holds every category hyperlink in document order, the literal
	// "more" link included. All of them are fetched.
	Links []catalog.CategoryLink
	// Names maps absolute category URL to its display text, excluding links
	// whose text case-insensitively equals "more". A missing entry leaves the
	// category name empty on downstream records.
	Names map[string]string
}

// DiscoverCategories scans the master page markup for category hyperlinks and
// resolves each href against the site's base origin. Zero matches yields an
// empty discovery, not an error.
func DiscoverCategories(html []byte, base *url.URL) (Discovery, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return Discovery{}, fmt.Errorf("parse master page: %w", err)
	}

	disc := Discovery{Names: make(map[string]string)}
	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if !strings.Contains(href, categoryPathFragment) {
			return
		}
		abs := resolveHref(base, href)
		if abs == "" {
			return
		}
		name := strings.TrimSpace(link.Text())
		disc.Links = append(disc.Links, catalog.CategoryLink{URL: abs, Name: name})
		if !strings.EqualFold(name, "more") {
			disc.Names[abs] = name
		}
	})
	return disc, nil
}

func resolveHref(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
