package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrNotPositive = errors.New("value must be greater than zero")

// ParseMinimum parses the minimum liquidation value typed at the prompt.
// A leading "$" and thousands separators are accepted.
func ParseMinimum(input string) (decimal.Decimal, error) {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, errors.New("enter a number")
	}

	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a number", input)
	}
	if !v.IsPositive() {
		return decimal.Zero, ErrNotPositive
	}
	return v, nil
}
