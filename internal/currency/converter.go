package currency

import (
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// RateSource supplies the current multiplier-vs-base for each supported
// currency. Implementations must return synchronously from whatever table
// they currently hold and never block on the network.
type RateSource interface {
	Rates() map[Code]float64
}

// Converter turns base-currency amounts into amounts and display strings in
// a selected currency. It is pure given the rate table currently held by its
// source.
type Converter struct {
	rates RateSource
}

func NewConverter(rates RateSource) *Converter {
	return &Converter{rates: rates}
}

// Convert multiplies a base-currency amount by the rate for code. The base
// currency converts 1:1 without a table lookup. Unknown codes fail with
// ErrUnsupportedCurrency instead of silently passing the amount through.
func (c *Converter) Convert(amountInBase float64, code Code) (float64, error) {
	if !Supported(code) {
		return 0, ErrUnsupportedCurrency
	}
	if code == Base {
		return amountInBase, nil
	}
	rate, ok := c.rates.Rates()[code]
	if !ok {
		return 0, ErrUnsupportedCurrency
	}
	return amountInBase * rate, nil
}

// Format converts and renders the amount with the currency's symbol and
// locale grouping. Amounts are treated as whole-unit prices, so fractional
// digits are dropped with round-to-nearest at the boundary.
func (c *Converter) Format(amountInBase float64, code Code) (string, error) {
	converted, err := c.Convert(amountInBase, code)
	if err != nil {
		return "", err
	}
	info := catalog[code]
	p := message.NewPrinter(info.tag)
	return p.Sprintf("%s%v", info.Symbol, number.Decimal(converted, number.Scale(0))), nil
}
