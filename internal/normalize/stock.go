package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/printdhruv/adafruit-crawler/internal/catalog"
)

var quantityPattern = regexp.MustCompile(`\d+`)

// stockPhrases are checked in order against the stock text. Every phrase
// is tested and the last one found wins, so "OUT OF STOCK DISCONTINUED"
// resolves to discontinued.
var stockPhrases = []struct {
	phrase string
	status catalog.StockStatus
}{
	{"IN STOCK", catalog.StockInStock},
	{"OUT OF STOCK", catalog.StockOutOfStock},
	{"DISCONTINUED", catalog.StockDiscontinued},
	{"COMING SOON", catalog.StockComingSoon},
}

// Stock parses stock text such as "142 IN STOCK" into a status and an
// available quantity. Phrases are matched literally, uppercase as the
// catalog markup writes them. Text that matches no known phrase maps
// to StockUnknown, and a missing leading count yields quantity 0.
func Stock(stockText string) (catalog.StockStatus, int) {
	text := strings.TrimSpace(stockText)
	if text == "" {
		return catalog.StockUnknown, 0
	}

	qty := 0
	if m := quantityPattern.FindString(text); m != "" {
		qty, _ = strconv.Atoi(m)
	}

	status := catalog.StockUnknown
	for _, sp := range stockPhrases {
		if strings.Contains(text, sp.phrase) {
			status = sp.status
		}
	}
	return status, qty
}
