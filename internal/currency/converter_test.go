package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticRates map[Code]float64

func (s staticRates) Rates() map[Code]float64 { return s }

func TestConvert_BaseIsIdentity(t *testing.T) {
	// The base currency must convert 1:1 even with an empty rate table.
	conv := NewConverter(staticRates{})

	got, err := conv.Convert(2499, Base)
	require.NoError(t, err)
	assert.Equal(t, 2499.0, got)
}

func TestConvert_AppliesRate(t *testing.T) {
	conv := NewConverter(staticRates{USD: 0.012})

	got, err := conv.Convert(1000, USD)
	require.NoError(t, err)
	assert.InDelta(t, 12.0, got, 1e-9)
}

func TestConvert_UnsupportedCode(t *testing.T) {
	conv := NewConverter(staticRates{USD: 0.012})

	_, err := conv.Convert(100, Code("XXX"))
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)
}

func TestConvert_SupportedCodeMissingFromTable(t *testing.T) {
	// A catalog currency with no rate must fail loudly, not pass the base
	// amount through.
	conv := NewConverter(staticRates{})

	_, err := conv.Convert(100, USD)
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)
}

func TestFormat_WholeUnits(t *testing.T) {
	conv := NewConverter(staticRates{USD: 0.012, JPY: 1.8})

	tests := []struct {
		name   string
		amount float64
		code   Code
		want   string
	}{
		{"base with grouping", 2499, INR, "₹2,499"},
		{"converted and rounded", 2499, USD, "$30"},
		{"yen", 2499, JPY, "¥4,498"},
		{"zero", 0, INR, "₹0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := conv.Format(tt.amount, tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_UnsupportedCode(t *testing.T) {
	conv := NewConverter(staticRates{})

	_, err := conv.Format(100, Code("BTC"))
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)
}

func TestAll_BaseFirst(t *testing.T) {
	infos := All()
	require.Len(t, infos, 10)
	assert.Equal(t, Base, infos[0].Code)

	seen := make(map[Code]bool, len(infos))
	for _, info := range infos {
		assert.False(t, seen[info.Code], "duplicate %s", info.Code)
		seen[info.Code] = true
		assert.NotEmpty(t, info.Symbol)
		assert.NotEmpty(t, info.Locale)
	}
}

func TestLookup(t *testing.T) {
	info, err := Lookup(GBP)
	require.NoError(t, err)
	assert.Equal(t, "£", info.Symbol)

	_, err = Lookup(Code("ZZZ"))
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)
}
