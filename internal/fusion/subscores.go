package fusion

import (
	"context"
	"math"
	"time"

	"github.com/mreyes/confluence/internal/contracts"
)

// Subscore saturation spans. Each subscore is bounded to [0, 10]:
// a count component and a value component worth up to 5 points each,
// plus (for actors) conviction bonuses under the same 10-point cap.
const (
	subscoreCap = 10.0

	insiderCountSpan = 5    // insiders buying until the count component saturates
	insiderValueSpan = 2.5e6 // aggregate purchase value until the value component saturates

	actorCountStep  = 1.5   // points per distinct actor, capped at 5
	actorValueSpan  = 500e3 // trust-weighted purchase value until saturation
	bipartisanBonus = 2.0
	highConvBonus   = 1.0
	highConvCap     = 3.0

	institutionalOverlapSpan = 4 // funds holding until the subscore saturates
)

// insiderSubscore scores one insider cluster: how many insiders bought
// and how much, each capped at 5.
func insiderSubscore(cluster contracts.InsiderCluster) float64 {
	countScore := math.Min(5, float64(cluster.ClusterCount)/insiderCountSpan*5)
	valueScore := math.Min(5, cluster.TotalValue/insiderValueSpan*5)
	return countScore + valueScore
}

// actorDetail computes the actor-source contribution for a cluster of
// legislator purchases. The weighted total applies each trade's trust
// weight at that trade's date; the subscore adds a bipartisan bonus
// and a capped per-high-conviction-actor bonus on top of the
// count/value components, then caps the total at 10.
func (e *Engine) actorDetail(ctx context.Context, cluster contracts.ActorCluster, asOf time.Time) *contracts.ActorDetail {
	actors := cluster.Actors()

	weightedTotal := 0.0
	for _, trade := range cluster.Trades {
		weight := e.weights.Weight(ctx, trade.Politician, trade.TradeDate)
		weightedTotal += trade.Amount * weight
	}

	highConviction := 0
	for _, name := range actors {
		if e.weights.IsHighConviction(ctx, name, asOf) {
			highConviction++
		}
	}

	countScore := math.Min(5, float64(len(actors))*actorCountStep)
	valueScore := math.Min(5, weightedTotal/actorValueSpan*5)

	score := countScore + valueScore
	if cluster.IsBipartisan() {
		score += bipartisanBonus
	}
	score += math.Min(highConvCap, float64(highConviction)*highConvBonus)
	score = math.Min(subscoreCap, score)

	return &contracts.ActorDetail{
		ActorCount:         len(actors),
		Actors:             actors,
		WeightedTotal:      weightedTotal,
		Bipartisan:         cluster.IsBipartisan(),
		HighConvictionSeen: highConviction,
		Subscore:           score,
	}
}

// institutionalSubscore scores 13F overlap: how many tracked funds
// hold the ticker.
func institutionalSubscore(overlapCount int) float64 {
	return math.Min(subscoreCap, float64(overlapCount)/institutionalOverlapSpan*subscoreCap)
}

// squeezeSubscore maps the 0-100 composite onto the 0-10 subscore scale.
func squeezeSubscore(score float64) float64 {
	return score / 10
}
