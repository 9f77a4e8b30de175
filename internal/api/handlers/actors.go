package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mreyes/confluence/internal/contracts"
	"github.com/mreyes/confluence/internal/trustweight"
	"github.com/mreyes/confluence/pkg/logger"
)

// ActorsHandler handles the tracked-legislator registry endpoints.
type ActorsHandler struct {
	actors contracts.ActorRepository
	trust  *trustweight.Engine
	logger *logger.Logger
}

// NewActorsHandler creates a new actors handler.
func NewActorsHandler(actors contracts.ActorRepository, trust *trustweight.Engine, log *logger.Logger) *ActorsHandler {
	return &ActorsHandler{
		actors: actors,
		trust:  trust,
		logger: log,
	}
}

type actorView struct {
	*contracts.Actor
	CurrentWeight float64 `json:"current_weight"`
}

// List returns every tracked actor with its weight as of now.
// GET /api/actors
func (h *ActorsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actors, err := h.actors.List(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list actors")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve actors")
		return
	}

	now := time.Now()
	views := make([]actorView, 0, len(actors))
	for _, actor := range actors {
		views = append(views, actorView{
			Actor:         actor,
			CurrentWeight: h.trust.Weight(ctx, actor.Name, now),
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(views),
		"actors": views,
	})
}

// StatusRequest represents a manual status override.
type StatusRequest struct {
	Status              string `json:"status"`                         // active | retiring | retired
	TermEnded           string `json:"term_ended,omitempty"`           // YYYY-MM-DD
	RetirementAnnounced string `json:"retirement_announced,omitempty"` // YYYY-MM-DD
}

// UpdateStatus applies a manual lifecycle change to one actor.
// PUT /api/actors/{name}/status
func (h *ActorsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := mux.Vars(r)["name"]

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	status := contracts.ActorStatus(req.Status)
	switch status {
	case contracts.StatusActive, contracts.StatusRetiring, contracts.StatusRetired:
	default:
		respondError(w, http.StatusBadRequest, "Unknown status: "+req.Status)
		return
	}

	termEnded, err := parseOptionalDate(req.TermEnded)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid term_ended date")
		return
	}
	announced, err := parseOptionalDate(req.RetirementAnnounced)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid retirement_announced date")
		return
	}

	if err := h.trust.UpdateStatus(ctx, name, status, termEnded, announced); err != nil {
		h.logger.WithError(err).WithField("actor", name).Error("Failed to update actor status")
		respondError(w, http.StatusInternalServerError, "Failed to update status")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"actor":  name,
		"status": req.Status,
	})
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
