package presenter

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var inrPrinter = message.NewPrinter(language.English)

// FormatINR renders d as rupees with two decimals and thousands grouping,
// e.g. "₹1,234.50". A nil price renders as "N/A".
func FormatINR(d *decimal.Decimal) string {
	if d == nil {
		return "N/A"
	}
	whole, frac, _ := strings.Cut(d.StringFixed(2), ".")
	return "₹" + groupDigits(whole) + "." + frac
}

// groupDigits inserts thousands separators into an integer string.
func groupDigits(whole string) string {
	if n, err := strconv.ParseInt(whole, 10, 64); err == nil {
		return inrPrinter.Sprintf("%d", n)
	}

	sign := ""
	if strings.HasPrefix(whole, "-") {
		sign, whole = "-", whole[1:]
	}
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}
