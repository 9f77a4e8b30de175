package capitoltrades

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mreyes/confluence/internal/contracts"
	"github.com/mreyes/confluence/pkg/httputil"
	"github.com/mreyes/confluence/pkg/logger"
)

// Client handles communication with the Capitol Trades BFF API, the
// congressional trade disclosure aggregator.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Capitol Trades client.
func NewClient(httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("module", "capitoltrades"),
		baseURL:    "https://bff.capitoltrades.com",
	}
}

// WithBaseURL overrides the endpoint, used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

type tradesResponse struct {
	Data []tradeItem `json:"data"`
	Meta struct {
		Paging struct {
			Page       int `json:"page"`
			TotalPages int `json:"totalPages"`
		} `json:"paging"`
	} `json:"meta"`
}

type tradeItem struct {
	TxDate string  `json:"txDate"`
	TxType string  `json:"txType"`
	Value  float64 `json:"value"`
	Size   *string `json:"size"`

	Politician struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Party     string `json:"party"`
		Chamber   string `json:"chamber"`
	} `json:"politician"`

	Issuer struct {
		IssuerTicker string `json:"issuerTicker"`
	} `json:"issuer"`
}

// FetchRecentPurchases fetches disclosed purchase transactions filed in
// the last `days` days. Sales and non-equity filings are skipped.
func (c *Client) FetchRecentPurchases(ctx context.Context, days int) ([]contracts.ActorTrade, error) {
	if days <= 0 {
		days = 30
	}

	params := url.Values{}
	params.Set("txType", "buy")
	params.Set("txDate", fmt.Sprintf("%dd", days))
	params.Set("pageSize", "100")

	var trades []contracts.ActorTrade
	for page := 1; ; page++ {
		params.Set("page", strconv.Itoa(page))

		pageTrades, totalPages, err := c.fetchPage(ctx, params)
		if err != nil {
			return nil, err
		}
		trades = append(trades, pageTrades...)

		if page >= totalPages {
			break
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"count": len(trades),
		"days":  days,
	}).Debug("Fetched actor purchases")
	return trades, nil
}

func (c *Client) fetchPage(ctx context.Context, params url.Values) ([]contracts.ActorTrade, int, error) {
	resp, err := c.httpClient.GetWithParams(ctx, c.baseURL+"/trades", params)
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response body failed: %w", err)
	}

	trades, totalPages, err := parseTrades(body)
	if err != nil {
		return nil, 0, fmt.Errorf("parse response failed: %w", err)
	}
	return trades, totalPages, nil
}

func parseTrades(body []byte) ([]contracts.ActorTrade, int, error) {
	var parsed tradesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, 0, err
	}

	trades := make([]contracts.ActorTrade, 0, len(parsed.Data))
	for _, item := range parsed.Data {
		if item.TxType != "buy" {
			continue
		}

		ticker := normalizeIssuerTicker(item.Issuer.IssuerTicker)
		if ticker == "" {
			continue
		}

		tradeDate, err := time.Parse("2006-01-02", item.TxDate)
		if err != nil {
			continue
		}

		amount := item.Value
		if amount == 0 && item.Size != nil {
			amount = sizeMidpoint(*item.Size)
		}

		trades = append(trades, contracts.ActorTrade{
			Politician:      item.Politician.FirstName + " " + item.Politician.LastName,
			Ticker:          ticker,
			TransactionType: "purchase",
			TradeDate:       tradeDate,
			Amount:          amount,
			Party:           partyCode(item.Politician.Party),
			Chamber:         chamberName(item.Politician.Chamber),
		})
	}

	totalPages := parsed.Meta.Paging.TotalPages
	if totalPages < 1 {
		totalPages = 1
	}
	return trades, totalPages, nil
}

// normalizeIssuerTicker strips the exchange suffix, "NVDA:US" -> "NVDA".
// Non-equity issuers carry "N/A" and are dropped.
func normalizeIssuerTicker(raw string) string {
	ticker := strings.ToUpper(strings.TrimSpace(raw))
	if idx := strings.Index(ticker, ":"); idx >= 0 {
		ticker = ticker[:idx]
	}
	if ticker == "" || ticker == "N/A" {
		return ""
	}
	return ticker
}

// sizeMidpoint maps a disclosure band like "15K–50K" to its midpoint.
// Disclosures report ranges, not exact amounts.
func sizeMidpoint(size string) float64 {
	size = strings.ReplaceAll(size, "–", "-")
	parts := strings.SplitN(size, "-", 2)
	lo := parseBandValue(parts[0])
	if len(parts) == 1 {
		return lo
	}
	hi := parseBandValue(parts[1])
	if hi == 0 {
		return lo
	}
	return (lo + hi) / 2
}

func parseBandValue(s string) float64 {
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
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v * mult
}

func partyCode(party string) string {
	switch strings.ToLower(party) {
	case "democrat":
		return "D"
	case "republican":
		return "R"
	default:
		return "I"
	}
}

func chamberName(chamber string) string {
	switch strings.ToLower(chamber) {
	case "house":
		return "House"
	case "senate":
		return "Senate"
	default:
		return chamber
	}
}
