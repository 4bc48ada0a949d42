package currency

import (
	"errors"
	"sort"

	"golang.org/x/text/language"
)

// Code is an ISO 4217 currency code from the supported set.
type Code string

const (
	INR Code = "INR"
	USD Code = "USD"
	GBP Code = "GBP"
	EUR Code = "EUR"
	JPY Code = "JPY"
	AUD Code = "AUD"
	CAD Code = "CAD"
	CHF Code = "CHF"
	CNY Code = "CNY"
	SGD Code = "SGD"
)

// Base is the fixed reference currency all catalog prices are authored in.
const Base = INR

// ErrUnsupportedCurrency is returned for any code outside the catalog.
// Callers are expected to only offer catalog-listed currencies, so hitting
// this is a programming error rather than a user mistake.
var ErrUnsupportedCurrency = errors.New("unsupported currency")

// Info describes one supported currency for display purposes.
type Info struct {
	Code   Code   `json:"code"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Locale string `json:"locale"`

	tag language.Tag
}

var catalog = map[Code]Info{
	INR: {Code: INR, Symbol: "₹", Name: "Indian Rupee", Locale: "en-IN"},
	USD: {Code: USD, Symbol: "$", Name: "US Dollar", Locale: "en-US"},
	GBP: {Code: GBP, Symbol: "£", Name: "British Pound", Locale: "en-GB"},
	EUR: {Code: EUR, Symbol: "€", Name: "Euro", Locale: "en-EU"},
	JPY: {Code: JPY, Symbol: "¥", Name: "Japanese Yen", Locale: "ja-JP"},
	AUD: {Code: AUD, Symbol: "A$", Name: "Australian Dollar", Locale: "en-AU"},
	CAD: {Code: CAD, Symbol: "C$", Name: "Canadian Dollar", Locale: "en-CA"},
	CHF: {Code: CHF, Symbol: "Fr.", Name: "Swiss Franc", Locale: "de-CH"},
	CNY: {Code: CNY, Symbol: "¥", Name: "Chinese Yuan", Locale: "zh-CN"},
	SGD: {Code: SGD, Symbol: "S$", Name: "Singapore Dollar", Locale: "en-SG"},
}

func init() {
	for code, info := range catalog {
		// language.Make never fails; well-formed but unknown tags like
		// en-EU fall back to the closest match.
		info.tag = language.Make(info.Locale)
		catalog[code] = info
	}
}

// Lookup returns the catalog entry for code.
func Lookup(code Code) (Info, error) {
	info, ok := catalog[code]
	if !ok {
		return Info{}, ErrUnsupportedCurrency
	}
	return info, nil
}

// Supported reports whether code is in the catalog.
func Supported(code Code) bool {
	_, ok := catalog[code]
	return ok
}

// All returns every supported currency, base first, the rest by code.
func All() []Info {
	infos := make([]Info, 0, len(catalog))
	for code, info := range catalog {
		if code == Base {
			continue
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Code < infos[j].Code })
	return append([]Info{catalog[Base]}, infos...)
}

// Codes returns every supported currency code.
func Codes() []Code {
	codes := make([]Code, 0, len(catalog))
	for code := range catalog {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
