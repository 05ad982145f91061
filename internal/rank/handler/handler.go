// Package handler exposes the ranking engine over HTTP: a rank
// endpoint for annotated-token batches, a cheap re-blend endpoint for
// previously returned score terms, and a Zipf-band example probe.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/vocabworks/vocab-ranking-platform/internal/oracle"
	"github.com/vocabworks/vocab-ranking-platform/internal/rank"
	"github.com/vocabworks/vocab-ranking-platform/internal/rank/cache"
	"github.com/vocabworks/vocab-ranking-platform/internal/score"
	"github.com/vocabworks/vocab-ranking-platform/pkg/config"
	apperrors "github.com/vocabworks/vocab-ranking-platform/pkg/errors"
	"github.com/vocabworks/vocab-ranking-platform/pkg/logger"
	"github.com/vocabworks/vocab-ranking-platform/pkg/metrics"
)

// RankRequest is the JSON body accepted by the rank endpoint.
type RankRequest struct {
	Documents []rank.Document `json:"documents"`
	Settings  SettingsPatch   `json:"settings"`
	// BaselineTotal, when positive, replaces the batch total as the
	// target-probability denominator.
	BaselineTotal int `json:"baseline_total,omitempty"`
	// IncludeTerms returns the precomputed score terms alongside the
	// rows so the caller can re-blend without re-ranking.
	IncludeTerms bool `json:"include_terms,omitempty"`
}

// RankResponse is returned by the rank endpoint.
type RankResponse struct {
	Rows   []rank.Row  `json:"rows"`
	Cached bool        `json:"cached"`
	Terms  score.Terms `json:"terms,omitempty"`
}

// ReblendRequest re-blends previously returned score terms under new
// blend-stage settings.
type ReblendRequest struct {
	Terms    score.Terms   `json:"terms"`
	Settings SettingsPatch `json:"settings"`
}

type Handler struct {
	ranker   *rank.Ranker
	table    *oracle.Table
	cache    *cache.ResultCache
	defaults config.RankingConfig
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates the handler. table and resultCache may be nil; the
// corresponding endpoints degrade gracefully (zipf examples 404, no
// caching).
func New(ranker *rank.Ranker, table *oracle.Table, resultCache *cache.ResultCache, defaults config.RankingConfig, m *metrics.Metrics) *Handler {
	return &Handler{
		ranker:   ranker,
		table:    table,
		cache:    resultCache,
		defaults: defaults,
		metrics:  m,
		logger:   slog.Default().With("component", "rank-handler"),
	}
}

// Register wires the handler's routes into the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/rank", h.Rank)
	mux.HandleFunc("POST /v1/reblend", h.Reblend)
	mux.HandleFunc("GET /v1/zipf-examples", h.ZipfExamples)
}

func (h *Handler) Rank(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req RankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Documents) == 0 {
		h.writeError(w, http.StatusBadRequest, "documents must not be empty")
		return
	}

	settings := req.Settings.Apply(h.defaults)
	mode := "lemma"
	if settings.AllowInflections {
		mode = "inflection"
	}

	var rows []rank.Row
	var cached bool
	var err error
	var terms score.Terms

	compute := func() ([]rank.Row, error) {
		prepared, err := h.ranker.Prepare(ctx, req.Documents, settings, req.BaselineTotal)
		if err != nil {
			return nil, err
		}
		terms = prepared.Terms
		return prepared.Rows(settings), nil
	}

	// Term extraction bypasses the cache: cached entries hold rows only.
	if h.cache != nil && !req.IncludeTerms {
		key := cache.Key(req.Documents, settings, req.BaselineTotal)
		rows, cached, err = h.cache.GetOrCompute(ctx, key, compute)
		if h.metrics != nil {
			if cached {
				h.metrics.CacheHitsTotal.Inc()
			} else {
				h.metrics.CacheMissesTotal.Inc()
			}
		}
	} else {
		rows, err = compute()
	}
	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		log.Error("ranking failed",
			"error", err,
			"status_code", statusCode,
			"documents", len(req.Documents),
		)
		if h.metrics != nil {
			h.metrics.DocumentsRankedTotal.WithLabelValues(outcomeFor(statusCode)).Add(float64(len(req.Documents)))
		}
		h.writeError(w, statusCode, "ranking failed: "+err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.DocumentsRankedTotal.WithLabelValues("ok").Add(float64(len(req.Documents)))
		h.metrics.RankLatency.WithLabelValues(mode).Observe(time.Since(start).Seconds())
		h.metrics.RankedRowsCount.Observe(float64(len(rows)))
	}
	log.Info("batch ranked",
		"documents", len(req.Documents),
		"rows", len(rows),
		"mode", mode,
		"cached", cached,
	)

	resp := RankResponse{Rows: rows, Cached: cached}
	if req.IncludeTerms {
		resp.Terms = terms
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Reblend(w http.ResponseWriter, r *http.Request) {
	var req ReblendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Terms) == 0 {
		h.writeError(w, http.StatusBadRequest, "terms must not be empty")
		return
	}

	settings := req.Settings.Apply(h.defaults)
	if err := settings.Validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	scored, dropped := score.Blend(req.Terms, score.Params{
		Limit:   settings.Limit,
		Balance: settings.BalanceWeight,
		MinZipf: settings.MinRefZipf,
		MaxZipf: settings.MaxRefZipf,
	})
	if h.metrics != nil && dropped > 0 {
		h.metrics.ScoresDroppedTotal.Add(float64(dropped))
	}
	rows := make([]rank.Row, 0, len(scored))
	for _, s := range scored {
		v := s.Score
		rows = append(rows, rank.Row{Word: s.Word, Count: s.Count, Score: &v})
	}
	h.writeJSON(w, http.StatusOK, RankResponse{Rows: rows})
}

func (h *Handler) ZipfExamples(w http.ResponseWriter, r *http.Request) {
	if h.table == nil {
		h.writeError(w, http.StatusNotFound, "no reference frequency table configured")
		return
	}

	lo, hi, n := 0.0, 8.0, 5
	if v := r.URL.Query().Get("min"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "min must be numeric")
			return
		}
		lo = parsed
	}
	if v := r.URL.Query().Get("max"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "max must be numeric")
			return
		}
		hi = parsed
	}
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = parsed
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"min":      lo,
		"max":      hi,
		"examples": h.table.ExamplesByBand(lo, hi, n),
	})
}

func outcomeFor(statusCode int) string {
	if statusCode >= 400 && statusCode < 500 {
		return "invalid"
	}
	return "error"
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
