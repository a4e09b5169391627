// Package money renders decimal amounts for humans.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// USD renders v as "$1,234.56".
func USD(v decimal.Decimal) string {
	if v.IsNegative() {
		return "-$" + Grouped(v.Abs(), 2)
	}
	return "$" + Grouped(v, 2)
}

// Grouped renders v with thousands separators and a fixed number of places.
func Grouped(v decimal.Decimal, places int32) string {
	return printer.Sprintf(fmt.Sprintf("%%.%df", places), v.Round(places).InexactFloat64())
}
