package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/universe"
	"github.com/wonny/aegis-t1/backend/pkg/logger"
)

// StockHandler handles single-security lookups
type StockHandler struct {
	quotes  contracts.QuoteFetcher
	candles contracts.KLineFetcher
	logger  *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(quotes contracts.QuoteFetcher, candles contracts.KLineFetcher, log *logger.Logger) *StockHandler {
	return &StockHandler{
		quotes:  quotes,
		candles: candles,
		logger:  log,
	}
}

// GetQuote returns the live quote of one security
// GET /api/quote/{code}
func (h *StockHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := mux.Vars(r)["code"]

	if err := universe.ValidCode(code); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	quotes, err := h.quotes.FetchQuotes(ctx, []string{code})
	if err != nil {
		h.logger.WithError(err).WithField("code", code).Error("Failed to fetch quote")
		respondError(w, http.StatusBadGateway, "Failed to fetch quote")
		return
	}
	if len(quotes) == 0 {
		respondError(w, http.StatusNotFound, "quote not found")
		return
	}

	q := quotes[0]
	seg := universe.SegmentOf(q.Code)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"data":        q,
		"segment":     seg,
		"limit_price": universe.LimitPrice(q.PrevClose, universe.LimitPct(seg)),
	})
}

// GetKLine returns candles of one security
// GET /api/kline/{code}?period=daily&days=60
func (h *StockHandler) GetKLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := mux.Vars(r)["code"]

	if err := universe.ValidCode(code); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	period, err := contracts.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	days := queryInt(r, "days", 60, 500)

	candles, err := h.candles.FetchKLines(ctx, code, period, days)
	if err != nil {
		if errors.Is(err, contracts.ErrInvalidCode) || errors.Is(err, contracts.ErrInvalidPeriod) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"code":   code,
			"period": period,
			"days":   days,
		}).Error("Failed to fetch candles")
		respondError(w, http.StatusBadGateway, "Failed to fetch candles")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"period":  period,
		"data":    candles,
	})
}
