package trustweight

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mreyes/confluence/internal/contracts"
)

// MemoryActorRepo is an in-memory contracts.ActorRepository for tests
// and database-less runs.
type MemoryActorRepo struct {
	mu        sync.RWMutex
	actors    map[string]*contracts.Actor
	lastCheck time.Time
}

// NewMemoryActorRepo creates an empty in-memory actor registry.
func NewMemoryActorRepo() *MemoryActorRepo {
	return &MemoryActorRepo{
		actors: make(map[string]*contracts.Actor),
	}
}

func (r *MemoryActorRepo) Get(_ context.Context, name string) (*contracts.Actor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	actor, ok := r.actors[name]
	if !ok {
		return nil, nil
	}
	cp := *actor
	return &cp, nil
}

func (r *MemoryActorRepo) Upsert(_ context.Context, actor *contracts.Actor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *actor
	r.actors[actor.Name] = &cp
	return nil
}

func (r *MemoryActorRepo) List(_ context.Context) ([]*contracts.Actor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*contracts.Actor, 0, len(r.actors))
	for _, actor := range r.actors {
		cp := *actor
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryActorRepo) LastAutomatedCheck(_ context.Context) (time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastCheck, nil
}

func (r *MemoryActorRepo) SetLastAutomatedCheck(_ context.Context, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastCheck = at
	return nil
}

// MemoryTradeRepo is an in-memory contracts.TradeRepository.
type MemoryTradeRepo struct {
	mu      sync.RWMutex
	records []*contracts.TradeRecord
	index   map[string]bool
}

// NewMemoryTradeRepo creates an empty in-memory trade history.
func NewMemoryTradeRepo() *MemoryTradeRepo {
	return &MemoryTradeRepo{
		index: make(map[string]bool),
	}
}

func tradeKey(ticker, actor string, tradeDate time.Time) string {
	return fmt.Sprintf("%s|%s|%s", ticker, actor, tradeDate.Format("2006-01-02"))
}

func (r *MemoryTradeRepo) Exists(_ context.Context, ticker, actor string, tradeDate time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index[tradeKey(ticker, actor, tradeDate)], nil
}

func (r *MemoryTradeRepo) Insert(_ context.Context, record *contracts.TradeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := tradeKey(record.Ticker, record.Actor, record.TradeDate)
	if r.index[key] {
		return fmt.Errorf("duplicate trade %s", key)
	}

	cp := *record
	r.records = append(r.records, &cp)
	r.index[key] = true
	return nil
}

func (r *MemoryTradeRepo) ListByActor(_ context.Context, actor string) ([]*contracts.TradeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*contracts.TradeRecord, 0)
	for _, rec := range r.records {
		if rec.Actor == actor {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryTradeRepo) ListByTicker(_ context.Context, ticker string) ([]*contracts.TradeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*contracts.TradeRecord, 0)
	for _, rec := range r.records {
		if rec.Ticker == ticker {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}
