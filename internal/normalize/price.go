// Package normalize turns the raw text scraped from product listings
// into the typed fields stored and served by the API.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var numberPattern = regexp.MustCompile(`[-+]?\d*\.\d+|\d+`)

// Price resolves the effective price for a product. A sale price, when
// present, takes precedence over the list price. Unparseable or missing
// text yields 0.
func Price(priceText, salePriceText string) float64 {
	text := strings.TrimSpace(salePriceText)
	if text == "" {
		text = strings.TrimSpace(priceText)
	}
	if text == "" {
		return 0
	}
	v := amount(text)
	if v < 0 {
		return 0
	}
	return v
}

// amount extracts a decimal value from price text such as "$45.00",
// "US$12.50" or "$2,499.00". Grouping commas and currency markers are
// dropped before parsing.
func amount(text string) float64 {
	if strings.Contains(text, ",") {
		var b strings.Builder
		for _, r := range text {
			if (r >= '0' && r <= '9') || r == '.' {
				b.WriteRune(r)
			}
		}
		if v, err := strconv.ParseFloat(b.String(), 64); err == nil {
			return v
		}
		return 0
	}

	if v, err := strconv.ParseFloat(text, 64); err == nil {
		return v
	}

	// Common case: a single currency rune prefixes the number.
	_, size := utf8.DecodeRuneInString(text)
	if v, err := strconv.ParseFloat(text[size:], 64); err == nil {
		return v
	}

	if m := numberPattern.FindString(text); m != "" {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			return v
		}
	}
	return 0
}
