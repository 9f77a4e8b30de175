package tickerguard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mreyes/confluence/internal/contracts"
	"github.com/mreyes/confluence/pkg/logger"
)

const (
	// MaxRetryAttempts is the failure count at which an entry is
	// promoted to PERMANENT, regardless of the caller's intent.
	MaxRetryAttempts = 3

	// CacheExpiryDays is how long a TEMPORARY entry blocks retries.
	CacheExpiryDays = 30

	// maxFailureHistory bounds the per-entry failure log.
	maxFailureHistory = 5
)

// Guard normalizes and validates tickers and maintains the persistent
// blacklist of identifiers that repeatedly fail lookups. It is the
// single writer of blacklist state; every mutation is serialized and
// persisted synchronously through the store.
type Guard struct {
	store  contracts.BlacklistStore
	logger *logger.Logger

	mu  sync.Mutex
	now func() time.Time
}

// New creates a guard over the given store.
func New(store contracts.BlacklistStore, log *logger.Logger) *Guard {
	return &Guard{
		store:  store,
		logger: log.WithField("module", "tickerguard"),
		now:    time.Now,
	}
}

// Normalize converts a raw identifier to canonical form.
func (g *Guard) Normalize(raw string) string {
	return Normalize(raw)
}

// Validate checks shape first, then blacklist membership last.
func (g *Guard) Validate(ctx context.Context, ticker string) (bool, string) {
	if ok, reason := Validate(ticker); !ok {
		return false, reason
	}
	if blocked, reason := g.IsBlacklisted(ctx, ticker); blocked {
		return false, reason
	}
	return true, ""
}

// IsBlacklisted reports whether the ticker is currently blocked.
// An expired TEMPORARY entry no longer blocks but stays in the store
// until CleanupExpired removes it.
func (g *Guard) IsBlacklisted(ctx context.Context, ticker string) (bool, string) {
	entry, err := g.store.Get(ctx, ticker)
	if err != nil {
		g.logger.WithError(err).WithField("ticker", ticker).Warn("Blacklist lookup failed")
		return false, ""
	}
	if entry == nil {
		return false, ""
	}

	if entry.FailureType == contracts.FailureTemporary && g.isExpired(entry) {
		return false, ""
	}

	return true, fmt.Sprintf("blacklisted (%s): %s", entry.FailureType, entry.Reason)
}

// RecordFailure increments the failure count for a ticker and persists
// the updated entry. Once the count reaches MaxRetryAttempts the entry
// is promoted to PERMANENT; only RecordSuccess or out-of-band deletion
// reverses that.
func (g *Guard) RecordFailure(ctx context.Context, ticker, reason string, kind contracts.FailureKind, code string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, err := g.store.Get(ctx, ticker)
	if err != nil {
		return fmt.Errorf("blacklist get %s: %w", ticker, err)
	}
	if entry == nil {
		entry = &contracts.BlacklistEntry{Ticker: ticker}
	}

	now := g.now()
	entry.FailureCount++
	entry.FailureType = kind
	entry.Reason = reason
	entry.ErrorCode = code
	entry.LastFailure = now

	entry.History = append(entry.History, contracts.FailureEvent{
		Reason: reason,
		Code:   code,
		At:     now,
	})
	if len(entry.History) > maxFailureHistory {
		entry.History = entry.History[len(entry.History)-maxFailureHistory:]
	}

	if entry.FailureCount >= MaxRetryAttempts {
		entry.FailureType = contracts.FailurePermanent
	}

	if err := g.store.Put(ctx, entry); err != nil {
		return fmt.Errorf("blacklist put %s: %w", ticker, err)
	}

	g.logger.WithFields(map[string]interface{}{
		"ticker":        ticker,
		"failure_count": entry.FailureCount,
		"failure_type":  entry.FailureType,
		"reason":        reason,
	}).Info("Ticker failure recorded")

	return nil
}

// RecordSuccess deletes the ticker's blacklist entry entirely.
// No "good" state is retained.
func (g *Guard) RecordSuccess(ctx context.Context, ticker string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, err := g.store.Get(ctx, ticker)
	if err != nil {
		return fmt.Errorf("blacklist get %s: %w", ticker, err)
	}
	if entry == nil {
		return nil
	}

	if err := g.store.Delete(ctx, ticker); err != nil {
		return fmt.Errorf("blacklist delete %s: %w", ticker, err)
	}

	g.logger.WithField("ticker", ticker).Info("Ticker recovered, blacklist entry removed")
	return nil
}

// CleanupExpired physically removes expired TEMPORARY entries and
// returns how many were removed. PERMANENT entries are never touched.
func (g *Guard) CleanupExpired(ctx context.Context, asOf time.Time) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	entries, err := g.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("blacklist list: %w", err)
	}

	removed := 0
	cutoff := asOf.AddDate(0, 0, -CacheExpiryDays)
	for _, entry := range entries {
		if entry.FailureType != contracts.FailureTemporary {
			continue
		}
		if entry.LastFailure.After(cutoff) {
			continue
		}
		if err := g.store.Delete(ctx, entry.Ticker); err != nil {
			g.logger.WithError(err).WithField("ticker", entry.Ticker).Warn("Cleanup delete failed")
			continue
		}
		removed++
	}

	if removed > 0 {
		g.logger.WithField("removed", removed).Info("Expired blacklist entries cleaned up")
	}
	return removed, nil
}

func (g *Guard) isExpired(entry *contracts.BlacklistEntry) bool {
	return g.now().Sub(entry.LastFailure) > CacheExpiryDays*24*time.Hour
}
