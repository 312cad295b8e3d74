package handler

import (
	"net/http"
)

// StatusHandler serves static facts about the running instance.
type StatusHandler struct {
	Mode    string
	Cycle   int
	Sources []string
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(mode string, cycle int, sources []string) *StatusHandler {
	return &StatusHandler{Mode: mode, Cycle: cycle, Sources: sources}
}

// GetStatus responds with the mode, election cycle and configured sources.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	sources := h.Sources
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":    h.Mode,
		"cycle":   h.Cycle,
		"sources": sources,
	})
}
