package fintel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shortInterestHTML = `
<html><body>
<table class="summary-table">
<tr><td>Short Interest</td><td>68,120,000</td></tr>
<tr><td>Short Interest % Float</td><td>24.53 %</td></tr>
<tr><td>Short Interest Days to Cover</td><td>6.8</td></tr>
<tr><td>Market Cap</td><td>$4.21B</td></tr>
</table>
</body></html>`

func TestParseShortInterest(t *testing.T) {
	snapshot, err := parseShortInterest(shortInterestHTML, "gme")
	require.NoError(t, err)

	assert.Equal(t, "GME", snapshot.Ticker)
	assert.InDelta(t, 0.2453, snapshot.ShortPercentFloat, 0.0001)
	assert.InDelta(t, 6.8, snapshot.DaysToCover, 0.001)
	assert.Equal(t, int64(68_120_000), snapshot.SharesShort)
	assert.InDelta(t, 4.21e9, snapshot.MarketCap, 1)
	assert.True(t, snapshot.DataAvailable)
}

func TestParseShortInterest_MissingFloat(t *testing.T) {
	_, err := parseShortInterest("<html><table class=\"table\"><tr><td>Market Cap</td><td>$1B</td></tr></table></html>", "GME")
	assert.Error(t, err)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1,234,567", 1_234_567},
		{"$4.21B", 4.21e9},
		{"12.3M", 12.3e6},
		{"950K", 950_000},
		{"42", 42},
	}

	for _, tt := range tests {
		got, err := parseNumber(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.InDelta(t, tt.want, got, 0.5, "input %q", tt.in)
	}
}

func TestParsePercent(t *testing.T) {
	got, err := parsePercent("24.53 %")
	require.NoError(t, err)
	assert.InDelta(t, 0.2453, got, 0.0001)

	_, err = parsePercent("n/a")
	assert.Error(t, err)
}
