package contracts

import "time"

// InsiderCluster represents a cluster of insider purchases in one ticker,
// as supplied by the insider-filings collaborator.
type InsiderCluster struct {
	Ticker       string  `json:"ticker"`
	Company      string  `json:"company"`
	ClusterCount int     `json:"cluster_count"` // distinct insiders buying
	TotalValue   float64 `json:"total_value"`   // aggregate purchase value, USD
}

// ActorTrade represents a single disclosed legislator trade.
type ActorTrade struct {
	Politician      string    `json:"politician"`
	Ticker          string    `json:"ticker"`
	TransactionType string    `json:"transaction_type"` // "purchase" or "sale"
	TradeDate       time.Time `json:"trade_date"`
	Amount          float64   `json:"amount"` // midpoint of the disclosed range, USD
	Party           string    `json:"party"`
	Chamber         string    `json:"chamber"`
}

// ActorCluster groups the disclosed trades of one ticker.
type ActorCluster struct {
	Ticker string       `json:"ticker"`
	Trades []ActorTrade `json:"trades"`
}

// Actors returns the distinct politicians in the cluster.
func (c *ActorCluster) Actors() []string {
	seen := make(map[string]bool)
	actors := make([]string, 0, len(c.Trades))
	for _, t := range c.Trades {
		if !seen[t.Politician] {
			seen[t.Politician] = true
			actors = append(actors, t.Politician)
		}
	}
	return actors
}

// IsBipartisan reports whether trades come from more than one party.
func (c *ActorCluster) IsBipartisan() bool {
	parties := make(map[string]bool)
	for _, t := range c.Trades {
		if t.Party != "" {
			parties[t.Party] = true
		}
	}
	return len(parties) > 1
}

// ShortInterestSnapshot holds the raw short-interest metrics of one ticker.
// Prices and percentages are best-effort, externally sourced, cached.
type ShortInterestSnapshot struct {
	Ticker            string    `json:"ticker"`
	ShortPercentFloat float64   `json:"short_percent_float"` // 0.35 == 35% of float
	DaysToCover       float64   `json:"days_to_cover"`
	SharesShort       int64     `json:"shares_short"`
	MarketCap         float64   `json:"market_cap"`
	ShortLevel        string    `json:"short_level"` // "low", "elevated", "high", "extreme"
	DataAvailable     bool      `json:"data_available"`
	FetchedAt         time.Time `json:"fetched_at"`
}
