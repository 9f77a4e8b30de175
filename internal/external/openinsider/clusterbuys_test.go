package openinsider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clusterBuysHTML = `
<html><body>
<table class="tinytable">
<thead><tr><th>X</th><th>Filing Date</th><th>Trade Date</th><th>Ticker</th><th>Company Name</th><th>Industry</th><th>Ins</th><th>Trade Type</th><th>Price</th><th>Qty</th><th>Owned</th><th>dOwn</th><th>Value</th></tr></thead>
<tbody>
<tr><td>M</td><td>2026-08-28 16:30:12</td><td>2026-08-27</td><td>GME</td><td>GameStop Corp</td><td>Specialty Retail</td><td>4</td><td>P - Purchase</td><td>$21.40</td><td>+98,000</td><td>412,000</td><td>+31%</td><td>+$2,097,200</td></tr>
<tr><td>M</td><td>2026-08-28 09:12:44</td><td>2026-08-26</td><td>ACME</td><td>Acme Industries</td><td>Machinery</td><td>2</td><td>P - Purchase</td><td>$8.12</td><td>+40,000</td><td>110,000</td><td>+57%</td><td>+$324,800</td></tr>
<tr><td>M</td><td>2026-08-27 17:01:02</td><td>2026-08-25</td><td>SLR</td><td>Seller Co</td><td>Energy</td><td>3</td><td>S - Sale</td><td>$44.00</td><td>-12,000</td><td>80,000</td><td>-13%</td><td>-$528,000</td></tr>
<tr><td colspan="3">ad row</td></tr>
</tbody>
</table>
</body></html>`

func TestParseClusterBuys(t *testing.T) {
	clusters, err := parseClusterBuys(clusterBuysHTML)
	require.NoError(t, err)

	require.Len(t, clusters, 2, "sale rows and short rows should be skipped")

	assert.Equal(t, "GME", clusters[0].Ticker)
	assert.Equal(t, "GameStop Corp", clusters[0].Company)
	assert.Equal(t, 4, clusters[0].ClusterCount)
	assert.InDelta(t, 2_097_200, clusters[0].TotalValue, 0.01)

	assert.Equal(t, "ACME", clusters[1].Ticker)
	assert.Equal(t, 2, clusters[1].ClusterCount)
}

func TestParseClusterBuys_NoTable(t *testing.T) {
	_, err := parseClusterBuys("<html><body><p>maintenance</p></body></html>")
	assert.Error(t, err)
}

func TestParseDollars(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"+$2,104,988", 2_104_988},
		{"-$528,000", 528_000},
		{"$75", 75},
		{"", 0},
		{"-", 0},
		{"n/a", 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, parseDollars(tt.in), 0.001, "input %q", tt.in)
	}
}
