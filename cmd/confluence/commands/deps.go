package commands

import (
	"fmt"

	"github.com/mreyes/confluence/internal/api"
	"github.com/mreyes/confluence/internal/data/repos"
	"github.com/mreyes/confluence/internal/enrich"
	"github.com/mreyes/confluence/internal/external/capitoltrades"
	"github.com/mreyes/confluence/internal/external/fintel"
	"github.com/mreyes/confluence/internal/external/openinsider"
	"github.com/mreyes/confluence/internal/external/thirteenf"
	"github.com/mreyes/confluence/internal/fusion"
	"github.com/mreyes/confluence/internal/pipeline"
	"github.com/mreyes/confluence/internal/squeeze"
	"github.com/mreyes/confluence/internal/strategyconfig"
	"github.com/mreyes/confluence/internal/tickerguard"
	"github.com/mreyes/confluence/internal/trustweight"
	"github.com/mreyes/confluence/pkg/config"
	"github.com/mreyes/confluence/pkg/database"
	"github.com/mreyes/confluence/pkg/httputil"
	"github.com/mreyes/confluence/pkg/logger"
	"github.com/mreyes/confluence/pkg/redis"
)

// stack holds the wired application components shared by the api, run
// and scheduler commands.
type stack struct {
	cfg      *config.Config
	strategy *strategyconfig.Config
	log      *logger.Logger

	db  *database.DB
	rdb *redis.Client

	blacklistRepo *repos.BlacklistRepository
	actorRepo     *repos.ActorRepository
	tradeRepo     *repos.TradeRepository
	signalRepo    *repos.SignalRepository

	guard        *tickerguard.Guard
	trust        *trustweight.Engine
	orchestrator *pipeline.Orchestrator
	hub          *api.Hub
}

// buildStack wires the full pipeline from configuration.
func buildStack() (*stack, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)

	strategyPath := cfg.StrategyFile
	if strategyFile != "" {
		strategyPath = strategyFile
	}
	strategy, err := strategyconfig.LoadOrDefault(strategyPath)
	if err != nil {
		return nil, fmt.Errorf("load strategy: %w", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	cache := redis.NewCache(rdb, "confluence")
	limiter := redis.NewRateLimiter(rdb, "confluence")

	// External clients, each behind its own rate limit
	insiderHTTP := httputil.New(log).
		WithRetry(3, 0).
		WithRateLimiter(limiter, redis.OpenInsiderRateLimit)
	actorHTTP := httputil.New(log).
		WithRetry(3, 0).
		WithRateLimiter(limiter, redis.CapitolTradesRateLimit)
	fintelHTTP := httputil.New(log).
		WithRetry(3, 0).
		WithRateLimiter(limiter, redis.FintelRateLimit)

	insiderClient := openinsider.NewClient(insiderHTTP, log).WithBaseURL(cfg.OpenInsider.BaseURL)
	actorClient := capitoltrades.NewClient(actorHTTP, log).WithBaseURL(cfg.CapitolTrades.BaseURL)
	fintelClient := fintel.NewClient(fintelHTTP, log).WithBaseURL(cfg.Fintel.BaseURL)

	// Repositories
	blacklistRepo := repos.NewBlacklistRepository(db.Pool)
	actorRepo := repos.NewActorRepository(db.Pool)
	tradeRepo := repos.NewTradeRepository(db.Pool)
	signalRepo := repos.NewSignalRepository(db.Pool)

	// Core engines
	guard := tickerguard.New(blacklistRepo, log)
	trust := trustweight.NewEngine(actorRepo, tradeRepo, strategy.Trust, log)
	shortInterest := squeeze.NewProvider(fintelClient, cache, guard, cfg.Fintel.CacheTTL, log)
	enricher := enrich.New(shortInterest, strategy.Enrich.Workers, log)
	fuser := fusion.NewEngine(strategy.Fusion, trust, log)

	// The 13F column is file-backed: no public endpoint serves holdings
	// reliably, so the operator curates a snapshot out of band.
	var institutional pipeline.InstitutionalSource
	if cfg.HoldingsFile != "" {
		institutional = thirteenf.New(cfg.HoldingsFile, log)
	}

	hub := api.NewHub(log)
	orchestrator := pipeline.NewOrchestrator(
		insiderClient, actorClient, institutional,
		guard, trust, enricher, fuser,
		signalRepo, hub, strategy, log,
	)

	return &stack{
		cfg:           cfg,
		strategy:      strategy,
		log:           log,
		db:            db,
		rdb:           rdb,
		blacklistRepo: blacklistRepo,
		actorRepo:     actorRepo,
		tradeRepo:     tradeRepo,
		signalRepo:    signalRepo,
		guard:         guard,
		trust:         trust,
		orchestrator:  orchestrator,
		hub:           hub,
	}, nil
}

// close releases the stack's connections.
func (s *stack) close() {
	s.hub.Close()
	if s.rdb != nil {
		s.rdb.Close()
	}
	s.db.Close()
}
