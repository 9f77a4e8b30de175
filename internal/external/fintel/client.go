package fintel

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mreyes/confluence/internal/contracts"
	"github.com/mreyes/confluence/internal/squeeze"
	"github.com/mreyes/confluence/pkg/httputil"
	"github.com/mreyes/confluence/pkg/logger"
)

// Client handles communication with the Fintel short-interest pages.
// Implements squeeze.SourceClient.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	now        func() time.Time
}

// NewClient creates a new Fintel client.
func NewClient(httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("module", "fintel"),
		baseURL:    "https://fintel.io",
		now:        time.Now,
	}
}

// WithBaseURL overrides the endpoint, used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// ShortInterest fetches the short-interest snapshot for one ticker.
func (c *Client) ShortInterest(ctx context.Context, ticker string) (*contracts.ShortInterestSnapshot, error) {
	fullURL := fmt.Sprintf("%s/ss/us/%s", c.baseURL, strings.ToLower(ticker))

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("ticker not covered: %s", ticker)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	snapshot, err := parseShortInterest(string(body), ticker)
	if err != nil {
		return nil, fmt.Errorf("parse response failed: %w", err)
	}
	snapshot.FetchedAt = c.now()
	snapshot.ShortLevel = squeeze.ShortLevel(snapshot.ShortPercentFloat)

	c.logger.WithFields(map[string]interface{}{
		"ticker":      ticker,
		"short_float": snapshot.ShortPercentFloat,
	}).Debug("Fetched short interest")
	return snapshot, nil
}

// parseShortInterest pulls the metrics out of the summary table, a
// two-column label/value layout.
func parseShortInterest(html, ticker string) (*contracts.ShortInterestSnapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	metrics := make(map[string]string)
	doc.Find("table.summary-table tr, table.table tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return
		}
		label := strings.TrimSpace(cells.Eq(0).Text())
		value := strings.TrimSpace(cells.Eq(1).Text())
		if label != "" && value != "" {
			metrics[strings.ToLower(label)] = value
		}
	})

	shortPct, ok := lookupPercent(metrics, "short interest % float", "short interest ratio % float")
	if !ok {
		return nil, fmt.Errorf("short interest %% float not found")
	}

	daysToCover, _ := lookupNumber(metrics, "short interest days to cover", "days to cover")
	sharesShort, _ := lookupNumber(metrics, "short interest", "shares short")
	marketCap, _ := lookupNumber(metrics, "market cap", "market capitalization")

	return &contracts.ShortInterestSnapshot{
		Ticker:            strings.ToUpper(ticker),
		ShortPercentFloat: shortPct,
		DaysToCover:       daysToCover,
		SharesShort:       int64(sharesShort),
		MarketCap:         marketCap,
		DataAvailable:     true,
	}, nil
}

func lookupPercent(metrics map[string]string, labels ...string) (float64, bool) {
	for _, label := range labels {
		if raw, ok := metrics[label]; ok {
			if v, err := parsePercent(raw); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}

func lookupNumber(metrics map[string]string, labels ...string) (float64, bool) {
	for _, label := range labels {
		if raw, ok := metrics[label]; ok {
			if v, err := parseNumber(raw); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}

// parsePercent parses "24.53 %" or "24.53%" into the 0..1 fraction.
func parsePercent(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return v / 100, nil
}

// parseNumber parses "1,234,567", "$4.21B", "12.3M" style values.
func parseNumber(s string) (float64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")

	mult := 1.0
	switch {
	case strings.HasSuffix(s, "K"):
		mult = 1e3
		s = strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		mult = 1e6
		s = strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "B"):
		mult = 1e9
		s = strings.TrimSuffix(s, "B")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return v * mult, nil
}
