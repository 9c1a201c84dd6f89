package serp

import (
	"regexp"
	"strconv"
	"strings"
)

// priceRe matches a leading currency symbol (optional) followed by digits,
// e.g. "$59.99", "₹1,299", "EUR 45".
var priceRe = regexp.MustCompile(`([A-Z$£€₹]{0,3})\s*([0-9,.]+)`)

// ParsePrice extracts a numeric amount and ISO currency code from a raw
// provider price string. Best-effort: anything unparseable comes back as
// 0 / USD rather than an error.
func ParsePrice(raw string) (float64, string) {
	amount := 0.0
	currency := "USD"

	m := priceRe.FindStringSubmatch(raw)
	if m == nil {
		return amount, currency
	}

	symbol := m[1]
	digits := strings.ReplaceAll(m[2], ",", "")
	if v, err := strconv.ParseFloat(digits, 64); err == nil {
		amount = v
	}

	switch {
	case strings.Contains(symbol, "$"):
		currency = "USD"
	case strings.Contains(symbol, "€"):
		currency = "EUR"
	case strings.Contains(symbol, "£"):
		currency = "GBP"
	case strings.Contains(symbol, "₹"):
		currency = "INR"
	}
	return amount, currency
}
