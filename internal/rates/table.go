package rates

import (
	"time"

	"github.com/emberleaf/storefront/internal/currency"
)

// FreshFor is how long a fetched rate table is trusted before a refresh is
// attempted.
const FreshFor = 24 * time.Hour

// Table maps currency codes to multipliers relative to the base currency,
// stamped with when it was retrieved.
type Table struct {
	Rates     map[currency.Code]float64 `json:"rates"`
	Timestamp time.Time                 `json:"timestamp"`
}

// Fresh reports whether the table is within the freshness window.
func (t *Table) Fresh(now time.Time) bool {
	return now.Sub(t.Timestamp) < FreshFor
}

// DefaultTable returns the hardcoded fallback rates. They cover every
// currency in the catalog so conversion keeps working with no cache and no
// network.
func DefaultTable() *Table {
	return &Table{
		Rates: map[currency.Code]float64{
			currency.INR: 1,
			currency.USD: 0.012,
			currency.GBP: 0.0095,
			currency.EUR: 0.011,
			currency.JPY: 1.8,
			currency.AUD: 0.018,
			currency.CAD: 0.016,
			currency.CHF: 0.011,
			currency.CNY: 0.087,
			currency.SGD: 0.016,
		},
		Timestamp: time.Time{},
	}
}
