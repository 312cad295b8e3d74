package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/marketlens/internal/domain"
)

// ArbService defines the methods that the arbitrage handler requires.
type ArbService interface {
	GetArbitrageOpportunities(ctx context.Context) []domain.ArbOpportunity
}

// ArbHandler serves arbitrage-related HTTP endpoints.
type ArbHandler struct {
	arb    ArbService
	logger *slog.Logger
}

// NewArbHandler creates an ArbHandler with the given service and logger.
func NewArbHandler(arb ArbService, logger *slog.Logger) *ArbHandler {
	return &ArbHandler{arb: arb, logger: logHandler(logger, "arbitrage")}
}

// listArbResponse wraps the list arbitrage opportunities response.
type listArbResponse struct {
	Opportunities []domain.ArbOpportunity `json:"opportunities"`
	Count         int                     `json:"count"`
}

// List returns cross-source pairs with diverging prices, truncated to limit.
// GET /api/arbitrage?limit=20
func (h *ArbHandler) List(w http.ResponseWriter, r *http.Request) {
	opps := h.arb.GetArbitrageOpportunities(r.Context())
	if opps == nil {
		opps = []domain.ArbOpportunity{}
	}
	if limit := parseLimit(r); len(opps) > limit {
		opps = opps[:limit]
	}
	writeJSON(w, http.StatusOK, listArbResponse{Opportunities: opps, Count: len(opps)})
}
