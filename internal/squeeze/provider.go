package squeeze

import (
	"context"
	"fmt"
	"time"

	"github.com/mreyes/confluence/internal/contracts"
	"github.com/mreyes/confluence/pkg/logger"
	"github.com/mreyes/confluence/pkg/redis"
)

// SourceClient fetches raw short-interest metrics from the external
// collaborator. Implemented by the fintel client.
type SourceClient interface {
	ShortInterest(ctx context.Context, ticker string) (*contracts.ShortInterestSnapshot, error)
}

// Provider serves short-interest snapshots through a read-through
// cache. A cache hit returns immediately; a miss triggers one fetch.
// Fetch failures are recorded against the ticker guard so repeat
// offenders get blacklisted instead of wasting calls.
type Provider struct {
	client SourceClient
	cache  *redis.Cache
	guard  contracts.Guard
	ttl    time.Duration
	logger *logger.Logger
}

// NewProvider creates a short-interest provider.
func NewProvider(client SourceClient, cache *redis.Cache, guard contracts.Guard, ttl time.Duration, log *logger.Logger) *Provider {
	if ttl <= 0 {
		ttl = redis.TTLShortInterest
	}
	return &Provider{
		client: client,
		cache:  cache,
		guard:  guard,
		ttl:    ttl,
		logger: log.WithField("module", "squeeze"),
	}
}

// Fetch returns the short-interest snapshot for a ticker.
func (p *Provider) Fetch(ctx context.Context, ticker string) (*contracts.ShortInterestSnapshot, error) {
	ticker = p.guard.Normalize(ticker)
	if ok, reason := p.guard.Validate(ctx, ticker); !ok {
		return nil, fmt.Errorf("ticker %s rejected: %s", ticker, reason)
	}

	var cached contracts.ShortInterestSnapshot
	if found, err := p.cache.Get(ctx, redis.ShortInterestKey(ticker), &cached); err == nil && found {
		return &cached, nil
	}

	snapshot, err := p.client.ShortInterest(ctx, ticker)
	if err != nil {
		if gerr := p.guard.RecordFailure(ctx, ticker, "short interest fetch failed", contracts.FailureTemporary, ""); gerr != nil {
			p.logger.WithError(gerr).WithField("ticker", ticker).Warn("Failed to record fetch failure")
		}
		return nil, fmt.Errorf("short interest %s: %w", ticker, err)
	}

	snapshot.Ticker = ticker
	snapshot.ShortLevel = ShortLevel(snapshot.ShortPercentFloat)
	snapshot.FetchedAt = time.Now()
	snapshot.DataAvailable = snapshot.ShortPercentFloat > 0

	if err := p.guard.RecordSuccess(ctx, ticker); err != nil {
		p.logger.WithError(err).WithField("ticker", ticker).Warn("Failed to clear blacklist entry")
	}

	if err := p.cache.Set(ctx, redis.ShortInterestKey(ticker), snapshot, p.ttl); err != nil {
		p.logger.WithError(err).WithField("ticker", ticker).Warn("Short interest cache write failed")
	}

	return snapshot, nil
}
