package currency

import (
	"database/sql/driver"
	"errors"
	"strings"
	"unicode"
)

type Currency string

const (
	CurrencyUAH Currency = "UAH"

	Default = CurrencyUAH
)

var ErrInvalidCurrency = errors.New("invalid currency")

func (c Currency) String() string {
	return string(c)
}

func (c Currency) Value() (driver.Value, error) {
	return c.String(), nil
}

// ParseCurrency accepts any ISO-like code made of 2 to 5 letters and upper-cases it.
func ParseCurrency(s string) (Currency, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 || len(s) > 5 {
		return "", ErrInvalidCurrency
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return "", ErrInvalidCurrency
		}
	}

	return Currency(s), nil
}
