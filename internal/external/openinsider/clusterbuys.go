package openinsider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mreyes/confluence/internal/contracts"
)

// FetchClusterBuys fetches the latest cluster-buy filings, filings
// where multiple insiders of the same company bought within days of
// each other.
func (c *Client) FetchClusterBuys(ctx context.Context) ([]contracts.InsiderCluster, error) {
	fullURL := c.baseURL + "/latest-cluster-buys"

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	clusters, err := parseClusterBuys(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse response failed: %w", err)
	}

	c.logger.WithField("count", len(clusters)).Debug("Fetched cluster buys")
	return clusters, nil
}

// parseClusterBuys parses the cluster-buy screener table.
// Columns: X | Filing Date | Trade Date | Ticker | Company Name |
// Industry | Ins | Trade Type | Price | Qty | Owned | dOwn | Value
func parseClusterBuys(html string) ([]contracts.InsiderCluster, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	table := doc.Find("table.tinytable").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("screener table not found")
	}

	var clusters []contracts.InsiderCluster
	table.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 13 {
			return
		}

		ticker := strings.TrimSpace(cells.Eq(3).Text())
		if ticker == "" {
			return
		}

		insiders, err := strconv.Atoi(strings.TrimSpace(cells.Eq(6).Text()))
		if err != nil || insiders < 1 {
			return
		}

		tradeType := strings.TrimSpace(cells.Eq(7).Text())
		if !strings.Contains(tradeType, "Purchase") {
			return
		}

		clusters = append(clusters, contracts.InsiderCluster{
			Ticker:       ticker,
			Company:      strings.TrimSpace(cells.Eq(4).Text()),
			ClusterCount: insiders,
			TotalValue:   parseDollars(cells.Eq(12).Text()),
		})
	})

	return clusters, nil
}

// parseDollars parses screener money cells like "+$2,104,988".
func parseDollars(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "+")
	if s == "" || s == "-" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	if v < 0 {
		return -v
	}
	return v
}
