package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mreyes/confluence/internal/contracts"
	"github.com/mreyes/confluence/internal/pipeline"
	"github.com/mreyes/confluence/pkg/logger"
)

// SignalsHandler handles fused-signal API endpoints.
type SignalsHandler struct {
	signalRepo   contracts.SignalRepository
	orchestrator *pipeline.Orchestrator
	logger       *logger.Logger
}

// NewSignalsHandler creates a new signals handler.
func NewSignalsHandler(signalRepo contracts.SignalRepository, orch *pipeline.Orchestrator, log *logger.Logger) *SignalsHandler {
	return &SignalsHandler{
		signalRepo:   signalRepo,
		orchestrator: orch,
		logger:       log,
	}
}

// GetLatest returns the most recent fusion run.
// GET /api/signals/latest
func (h *SignalsHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.signalRepo.LatestRun(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get latest run")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve latest run")
		return
	}
	if result == nil {
		respondError(w, http.StatusNotFound, "No fusion run recorded yet")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// RunRequest represents a manual run request.
type RunRequest struct {
	LookbackDays int  `json:"lookback_days"` // optional, default 30
	DryRun       bool `json:"dry_run"`
}

// TriggerRun executes one fusion pass synchronously.
// POST /api/signals/run
func (h *SignalsHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RunRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	runResult, err := h.orchestrator.Run(ctx, pipeline.RunConfig{
		LookbackDays: req.LookbackDays,
		DryRun:       req.DryRun,
	})
	if err != nil {
		h.logger.WithError(err).Error("Manual run failed")
		respondError(w, http.StatusInternalServerError, "Run failed: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"stages":          runResult.CompletedStages,
		"duration_ms":     runResult.Duration.Milliseconds(),
		"trades_recorded": runResult.TradesRecorded,
		"tickers_dropped": runResult.TickersDropped,
		"result":          runResult.Result,
	})
}
