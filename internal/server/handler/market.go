package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/topic"
)

// MarketService defines the methods that the market handler requires from the
// service layer. It is declared locally so the handler package does not depend
// on the concrete service implementation.
type MarketService interface {
	GetTopMarkets(ctx context.Context, limit int) []domain.Market
	GetMarketsByTopic(ctx context.Context, probe topic.Probe, limit int) []domain.Market
	GetMarketsByCountry(ctx context.Context, country string, limit int) []domain.Market
}

// MarketHandler serves market-related HTTP endpoints.
type MarketHandler struct {
	markets MarketService
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler with the given service and logger.
func NewMarketHandler(markets MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		markets: markets,
		logger:  logHandler(logger, "markets"),
	}
}

// listMarketsResponse wraps the list endpoint output with metadata.
type listMarketsResponse struct {
	Markets []domain.Market `json:"markets"`
	Count   int             `json:"count"`
	Limit   int             `json:"limit"`
}

func (h *MarketHandler) respond(w http.ResponseWriter, markets []domain.Market, limit int) {
	if markets == nil {
		markets = []domain.Market{}
	}
	writeJSON(w, http.StatusOK, listMarketsResponse{
		Markets: markets,
		Count:   len(markets),
		Limit:   limit,
	})
}

// TopMarkets returns the highest-volume markets across every source.
// GET /api/markets/top?limit=50
func (h *MarketHandler) TopMarkets(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r)
	h.respond(w, h.markets.GetTopMarkets(r.Context(), limit), limit)
}

// TopicMarkets ranks markets against a keyword probe.
// GET /api/markets/topic?required=fed,rate&boost=june&all=true
func (h *MarketHandler) TopicMarkets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	probe := topic.Probe{
		Name:     "adhoc",
		Required: splitList(q.Get("required")),
		Boost:    splitList(q.Get("boost")),
	}
	if len(probe.Required) == 0 {
		writeError(w, http.StatusBadRequest, "required keywords missing")
		return
	}
	if v := q.Get("all"); v != "" {
		all, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "all must be a boolean")
			return
		}
		probe.MatchAll = all
	}

	limit := parseLimit(r)
	markets := h.markets.GetMarketsByTopic(r.Context(), probe, limit)
	h.logger.DebugContext(r.Context(), "topic query",
		slog.Any("required", probe.Required),
		slog.Int("results", len(markets)),
	)
	h.respond(w, markets, limit)
}

// CountryMarkets returns markets mentioning a country. Unknown countries
// yield an empty list.
// GET /api/markets/country/{name}
func (h *MarketHandler) CountryMarkets(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing country")
		return
	}
	limit := parseLimit(r)
	h.respond(w, h.markets.GetMarketsByCountry(r.Context(), name, limit), limit)
}
