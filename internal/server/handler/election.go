package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/marketlens/internal/domain"
)

// ElectionService defines the election views the handler serves.
type ElectionService interface {
	GetElectionLiveData(ctx context.Context) domain.ElectionSnapshot
	GetElectionStateData(ctx context.Context, state string) (domain.ElectionSnapshot, error)
}

// ElectionHandler serves race ratings and primary results.
type ElectionHandler struct {
	elections ElectionService
	logger    *slog.Logger
}

// NewElectionHandler creates an ElectionHandler.
func NewElectionHandler(elections ElectionService, logger *slog.Logger) *ElectionHandler {
	return &ElectionHandler{elections: elections, logger: logHandler(logger, "elections")}
}

// Live returns the full election snapshot. An empty snapshot is still a 200.
// GET /api/elections
func (h *ElectionHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.elections.GetElectionLiveData(r.Context()))
}

// State returns the snapshot filtered to one state, by code or name.
// GET /api/elections/{state}
func (h *ElectionHandler) State(w http.ResponseWriter, r *http.Request) {
	state := pathParam(r, "state")
	snap, err := h.elections.GetElectionStateData(r.Context(), state)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown state")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: election state failed",
			slog.String("state", state),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load election data")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
