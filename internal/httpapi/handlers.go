package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/boompicks/pickengine/internal/cache"
	"github.com/boompicks/pickengine/internal/domain"
	"github.com/boompicks/pickengine/internal/pipeline"
	"github.com/boompicks/pickengine/internal/provider"
	"github.com/boompicks/pickengine/internal/store"
)

// Handler holds the dependencies the HTTP surface needs: the store for
// read-only queries, the engine for the administrative run-once endpoint,
// and the provider that engine sweeps against.
type Handler struct {
	Store    *store.Store
	Engine   *pipeline.Engine
	Provider provider.Provider
	Cache    *cache.TTLCache
	Log      zerolog.Logger
}

// NewHandler constructs a Handler from its dependencies. cacheClient may be
// nil, in which case GetCLVMetrics always computes the aggregate directly.
func NewHandler(st *store.Store, eng *pipeline.Engine, prov provider.Provider, cacheClient *cache.TTLCache, log zerolog.Logger) *Handler {
	return &Handler{Store: st, Engine: eng, Provider: prov, Cache: cacheClient, Log: log}
}

// HealthCheck reports database connectivity and the most recent completed
// run, so an operator or load balancer can distinguish "up" from "up and
// actually producing picks".
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, 2*time.Second)
	defer cancel()

	if err := h.Store.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database unhealthy", err)
		return
	}

	latest, err := h.Store.LatestPipelineRun(ctx, h.Store.DB())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read latest pipeline run", err)
		return
	}

	resp := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	}
	if latest != nil {
		resp["latest_run_id"] = latest.ID
		resp["latest_run_finished_at"] = latest.FinishedAt
	} else {
		resp["latest_run_id"] = nil
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetPicksToday returns every pick created since the start of the current
// UTC day.
func (h *Handler) GetPicksToday(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	picks, err := h.Store.PicksForDay(ctx, h.Store.DB(), dayStart)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve today's picks", err)
		return
	}

	out := make([]map[string]any, len(picks))
	for i, p := range picks {
		out[i] = pickDTO(p)
	}
	respondJSON(w, http.StatusOK, map[string]any{"picks": out, "count": len(out)})
}

// GetPickByID returns a single pick by id.
func (h *Handler) GetPickByID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, 5*time.Second)
	defer cancel()

	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid pick id", err)
		return
	}

	pick, err := h.Store.PickByID(ctx, h.Store.DB(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve pick", err)
		return
	}
	if pick == nil {
		respondError(w, http.StatusNotFound, "pick not found", nil)
		return
	}
	respondJSON(w, http.StatusOK, pickDTO(*pick))
}

const clvMetricsCacheKey = "metrics:clv:summary"

// clvMetricsDTO is the cached/returned shape for GetCLVMetrics.
type clvMetricsDTO struct {
	SettledCount    int64   `json:"settled_count"`
	ClosingCoverage float64 `json:"closing_coverage"`
	AvgCLVMarket    float64 `json:"avg_clv_market"`
	AvgCLVBook      float64 `json:"avg_clv_book"`
}

// GetCLVMetrics returns the settled-pick count, the share of all picks with
// a closing line, and the average market and book CLV over settled picks.
// The aggregate is read-through cached, since it scans the
// full picks/settlements/closing_lines join and changes only once per
// pipeline run.
func (h *Handler) GetCLVMetrics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, 5*time.Second)
	defer cancel()

	if h.Cache != nil {
		var cached clvMetricsDTO
		if hit, err := h.Cache.Get(ctx, clvMetricsCacheKey, &cached); err == nil && hit {
			respondJSON(w, http.StatusOK, cached)
			return
		}
	}

	summary, err := h.Store.CLVMetrics(ctx, h.Store.DB())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute clv metrics", err)
		return
	}
	dto := clvMetricsDTO{
		SettledCount:    summary.SettledCount,
		ClosingCoverage: summary.ClosingCoverage,
		AvgCLVMarket:    summary.AvgCLVMarket,
		AvgCLVBook:      summary.AvgCLVBook,
	}
	if h.Cache != nil {
		if err := h.Cache.Set(ctx, clvMetricsCacheKey, dto); err != nil {
			h.Log.Warn().Err(err).Msg("cache clv metrics")
		}
	}
	respondJSON(w, http.StatusOK, dto)
}

// RunOnce triggers a single pipeline sweep against the configured provider
// and returns the resulting run summary, including per-run block reasons.
func (h *Handler) RunOnce(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, 60*time.Second)
	defer cancel()

	summary, err := h.Engine.RunOnce(ctx, h.Provider)
	if err != nil {
		respondPipelineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Retrain is a stub: the training routine itself is out of scope (see the
// model-scoring package's own doc comment), so this does not read the
// request and only reports that no training was performed.
func (h *Handler) Retrain(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusAccepted, map[string]any{
		"status":  "not_implemented",
		"message": "model training is not performed by this service; register a trained artifact directly",
	})
}

func withTimeout(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), d)
}

func pickDTO(p domain.Pick) map[string]any {
	return map[string]any{
		"id":                    p.ID,
		"pick_lifecycle_id":     p.PickLifecycleID,
		"event_normalized_id":   p.EventNormalizedID,
		"model_version":         p.ModelVersion,
		"feature_version":       p.FeatureVersion,
		"market":                p.Market,
		"side":                  p.Side,
		"book":                  p.Book,
		"pick_time_price":       p.PickTimePrice,
		"decimal_odds":          p.DecimalOdds,
		"implied_prob":          p.ImpliedProb,
		"market_consensus_prob": p.MarketConsensusProb,
		"model_prob":            p.ModelProb,
		"model_edge":            p.ModelEdge,
		"ev_percent":            p.EVPercent,
		"kelly_fraction":        p.KellyFraction,
		"tier":                  p.Tier,
		"created_at":            p.CreatedAt,
		"status":                p.Status,
	}
}
