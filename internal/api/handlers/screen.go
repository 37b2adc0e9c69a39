package handlers

import (
	"errors"
	"net/http"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/pipeline"
	"github.com/wonny/aegis-t1/backend/internal/selection"
	"github.com/wonny/aegis-t1/backend/internal/universe"
	"github.com/wonny/aegis-t1/backend/pkg/logger"
)

const (
	maxScreenLimit = 500
	maxHotLimit    = 200
)

// LatestSource exposes the last scheduled result
type LatestSource interface {
	Latest() *contracts.ScreenResult
}

// ScreenHandler handles screening endpoints
// ⭐ SSOT: 选股 API 只在这里
type ScreenHandler struct {
	pipeline *pipeline.Pipeline
	latest   LatestSource
	logger   *logger.Logger
}

// NewScreenHandler creates a new screen handler. latest may be nil.
func NewScreenHandler(p *pipeline.Pipeline, latest LatestSource, log *logger.Logger) *ScreenHandler {
	return &ScreenHandler{
		pipeline: p,
		latest:   latest,
		logger:   log,
	}
}

// parseOptions overlays query toggles on the pipeline defaults
func (h *ScreenHandler) parseOptions(r *http.Request) pipeline.Options {
	opts := h.pipeline.Options()
	opts.EnableNewsSearch = queryBool(r, "news", opts.EnableNewsSearch)
	opts.IncludeHighVolatilitySegments = queryBool(r, "high_vol", opts.IncludeHighVolatilitySegments)
	opts.PreferTailInflow = queryBool(r, "prefer_inflow", opts.PreferTailInflow)
	opts.StrictRiskControl = queryBool(r, "strict", opts.StrictRiskControl)
	return opts
}

// parseCriteria reads per-request criteria overrides
func parseCriteria(r *http.Request) (selection.Overrides, error) {
	var o selection.Overrides
	floats := []struct {
		key string
		dst **float64
	}{
		{"change_min", &o.ChangePctMin},
		{"change_max", &o.ChangePctMax},
		{"volume_ratio_min", &o.VolumeRatioMin},
		{"volume_ratio_max", &o.VolumeRatioMax},
		{"market_cap_min", &o.FloatCapMin},
		{"market_cap_max", &o.FloatCapMax},
	}
	for _, f := range floats {
		v, err := queryFloat(r, f.key)
		if err != nil {
			return o, err
		}
		*f.dst = v
	}

	limit, err := queryLimit(r, "limit", maxScreenLimit)
	if err != nil {
		return o, err
	}
	o.Limit = limit
	return o, nil
}

// pipelineFor applies the request's toggles and criteria overrides
func (h *ScreenHandler) pipelineFor(r *http.Request) (*pipeline.Pipeline, error) {
	criteria, err := parseCriteria(r)
	if err != nil {
		return nil, err
	}
	return h.pipeline.WithOptions(h.parseOptions(r)).WithCriteria(criteria), nil
}

// GetScreen returns quotes passing the hard criteria only
// GET /api/screen?high_vol=true&change_min=2&change_max=6&limit=50
func (h *ScreenHandler) GetScreen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, err := h.pipelineFor(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := p.Filter(ctx)
	if err != nil {
		h.respondRunError(w, err, "Failed to screen universe")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    result,
	})
}

// GetPick runs the full pipeline
// GET /api/pick?news=true&high_vol=false&prefer_inflow=false&strict=false
func (h *ScreenHandler) GetPick(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, err := h.pipelineFor(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := p.Run(ctx)
	if err != nil {
		h.respondRunError(w, err, "Failed to run screening")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    result,
	})
}

// GetHot returns the most traded quotes of the universe
// GET /api/hot?limit=20
func (h *ScreenHandler) GetHot(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20, maxHotLimit)

	quotes, err := h.pipeline.Hot(r.Context(), limit)
	if err != nil {
		h.respondRunError(w, err, "Failed to fetch hot quotes")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(quotes),
		"data":    quotes,
	})
}

// GetFilterCodes runs the pattern and concept check on a given code list
// GET /api/filter?codes=600519,000001
func (h *ScreenHandler) GetFilterCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := universe.ParseCodes(r.URL.Query().Get("codes"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(codes) == 0 {
		respondError(w, http.StatusBadRequest, "codes is required")
		return
	}

	result, err := h.pipeline.AnalyzeCodes(r.Context(), codes)
	if err != nil {
		h.respondRunError(w, err, "Failed to analyze codes")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"count":          len(result.Picks),
		"total_analyzed": result.Requested,
		"data":           result.Picks,
		"all_analysis":   result.All,
	})
}

// GetLatest returns the last scheduled result
// GET /api/pick/latest
func (h *ScreenHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	if h.latest == nil {
		respondError(w, http.StatusNotFound, "scheduler is not running")
		return
	}
	result := h.latest.Latest()
	if result == nil {
		respondError(w, http.StatusNotFound, "no scheduled result yet")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    result,
	})
}

// GetStrategy returns the active strategy and its hash
// GET /api/strategy
func (h *ScreenHandler) GetStrategy(w http.ResponseWriter, r *http.Request) {
	strategy, hash := h.pipeline.Strategy()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"config_hash": hash,
		"options":     h.pipeline.Options(),
		"data":        strategy,
	})
}

// GetIndex returns the environment of the reference indices
// GET /api/index
func (h *ScreenHandler) GetIndex(w http.ResponseWriter, r *http.Request) {
	markets := h.pipeline.Markets(r.Context())

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    markets,
	})
}

func (h *ScreenHandler) respondRunError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, contracts.ErrNoData) {
		h.logger.WithError(err).Warn("No market data available")
		respondError(w, http.StatusServiceUnavailable, "no market data available")
		return
	}
	h.logger.WithError(err).Error(msg)
	respondError(w, http.StatusInternalServerError, msg)
}
