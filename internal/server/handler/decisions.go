package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/kalshibot/internal/domain"
)

// DecisionHandler serves quoting-decision endpoints. The store backs the
// history endpoints; the cache backs the latest-decision endpoint. Either may
// be nil when the deployment runs without that backend.
type DecisionHandler struct {
	logger *slog.Logger
	store  domain.DecisionStore
	cache  domain.DecisionCache
}

// NewDecisionHandler creates a DecisionHandler.
func NewDecisionHandler(store domain.DecisionStore, cache domain.DecisionCache, logger *slog.Logger) *DecisionHandler {
	return &DecisionHandler{
		logger: logHandler(logger, "decisions"),
		store:  store,
		cache:  cache,
	}
}

// ListRecent returns the most recent decisions across all markets.
// GET /api/decisions
func (h *DecisionHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "decision history is not enabled")
		return
	}

	opts := parseListOpts(r)
	decs, err := h.store.ListRecent(r.Context(), opts.Limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list recent decisions", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list decisions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"decisions": decs, "count": len(decs)})
}

// ListByTicker returns decision history for one market.
// GET /api/decisions/{ticker}
func (h *DecisionHandler) ListByTicker(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "decision history is not enabled")
		return
	}

	ticker := pathParam(r, "ticker")
	decs, err := h.store.ListByTicker(r.Context(), ticker, parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list decisions",
			slog.String("ticker", ticker), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list decisions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ticker": ticker, "decisions": decs, "count": len(decs)})
}

// Latest returns the most recent cached decision for one market.
// GET /api/decisions/{ticker}/latest
func (h *DecisionHandler) Latest(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		writeError(w, http.StatusServiceUnavailable, "decision cache is not enabled")
		return
	}

	ticker := pathParam(r, "ticker")
	dec, err := h.cache.Get(r.Context(), ticker)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no decision for "+ticker)
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "get latest decision",
			slog.String("ticker", ticker), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to get decision")
		return
	}
	writeJSON(w, http.StatusOK, dec)
}
