package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/kalshibot/internal/domain"
)

// TickerEvaluator runs one on-demand evaluation for a market. The evaluator
// package's Evaluator satisfies it.
type TickerEvaluator interface {
	EvaluateTicker(ctx context.Context, ticker string) (domain.QuoteDecision, error)
}

// EvaluateHandler serves the on-demand evaluation endpoint.
type EvaluateHandler struct {
	logger    *slog.Logger
	evaluator TickerEvaluator
}

// NewEvaluateHandler creates an EvaluateHandler.
func NewEvaluateHandler(evaluator TickerEvaluator, logger *slog.Logger) *EvaluateHandler {
	return &EvaluateHandler{
		logger:    logHandler(logger, "evaluate"),
		evaluator: evaluator,
	}
}

// Evaluate fetches the market's current book and runs one evaluation,
// returning the resulting decision.
// POST /api/evaluate/{ticker}
func (h *EvaluateHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	if h.evaluator == nil {
		writeError(w, http.StatusServiceUnavailable, "evaluator is not enabled")
		return
	}

	ticker := pathParam(r, "ticker")
	dec, err := h.evaluator.EvaluateTicker(r.Context(), ticker)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "on-demand evaluation failed",
			slog.String("ticker", ticker), slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "evaluation failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dec)
}
