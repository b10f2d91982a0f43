package scrape

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/printdhruv/adafruit-crawler/internal/catalog"
)

// Selectors for the product listing markup. The identity anchor carries the
// product id and name as data attributes; the price and stock nodes are all
// independently optional.
const (
	productBlockSelector = "div.product-listing-right"
	identitySelector     = "a.ec_click_product"
	priceSelector        = "span.normal-price"
	salePriceSelector    = "span.red-sale-price"
	stockSelector        = "div.stock"
)

// ExtractProducts parses a category page into raw product field bundles.
// Every product listing block yields exactly one RawProduct, even when every
// optional field is absent; a missing element never raises.
func ExtractProducts(html []byte) ([]catalog.RawProduct, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse category page: %w", err)
	}

	var products []catalog.RawProduct
	doc.Find(productBlockSelector).Each(func(_ int, block *goquery.Selection) {
		var p catalog.RawProduct

		anchor := block.Find(identitySelector).First()
		if anchor.Length() > 0 {
			p.ID = anchor.AttrOr("data-pid", "")
			// The data-name attribute sometimes embeds <b>/<strong> tags.
			p.Name = PlainText(anchor.AttrOr("data-name", ""))
		}

		p.PriceText = firstText(block, priceSelector)
		p.SalePriceText = firstText(block, salePriceSelector)
		p.StockText = firstText(block, stockSelector)

		products = append(products, p)
	})
	return products, nil
}

// firstText returns the text content of the first node matching selector, or
// "" when the node is absent.
func firstText(block *goquery.Selection, selector string) string {
	node := block.Find(selector).First()
	if node.Length() == 0 {
		return ""
	}
	return node.Text()
}
