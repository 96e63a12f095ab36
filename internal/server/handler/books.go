package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/kalshibot/internal/domain"
)

// BookHandler serves processed-orderbook endpoints. The cache holds the live
// book per ticker; the snapshot store backs the history endpoint.
type BookHandler struct {
	logger    *slog.Logger
	cache     domain.BookCache
	snapshots domain.SnapshotStore
}

// NewBookHandler creates a BookHandler.
func NewBookHandler(cache domain.BookCache, snapshots domain.SnapshotStore, logger *slog.Logger) *BookHandler {
	return &BookHandler{
		logger:    logHandler(logger, "books"),
		cache:     cache,
		snapshots: snapshots,
	}
}

// GetBook returns the latest processed book for one market.
// GET /api/books/{ticker}
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		writeError(w, http.StatusServiceUnavailable, "book cache is not enabled")
		return
	}

	ticker := pathParam(r, "ticker")
	snap, err := h.cache.GetSnapshot(r.Context(), ticker)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no book for "+ticker)
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "get book",
			slog.String("ticker", ticker), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to get book")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GetBBO returns just the best bid and ask for one market.
// GET /api/books/{ticker}/bbo
func (h *BookHandler) GetBBO(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		writeError(w, http.StatusServiceUnavailable, "book cache is not enabled")
		return
	}

	ticker := pathParam(r, "ticker")
	bid, ask, err := h.cache.GetBBO(r.Context(), ticker)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no bbo for "+ticker)
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "get bbo",
			slog.String("ticker", ticker), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to get bbo")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ticker": ticker, "best_bid": bid, "best_ask": ask})
}

// History returns persisted snapshots for one market, newest first.
// GET /api/books/{ticker}/history
func (h *BookHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshot history is not enabled")
		return
	}

	ticker := pathParam(r, "ticker")
	snaps, err := h.snapshots.ListByTicker(r.Context(), ticker, parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list snapshots",
			slog.String("ticker", ticker), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list snapshots")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ticker": ticker, "snapshots": snaps, "count": len(snaps)})
}
