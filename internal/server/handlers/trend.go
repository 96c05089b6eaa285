// internal/server/handlers/trend.go

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trendcast/internal/adapter/storage"
	"trendcast/internal/domain/trend"
	"trendcast/internal/service/listening"
)

// ArtifactReader returns stored prediction artifacts
type ArtifactReader interface {
	Read(feed string) ([]byte, error)
}

// Runner executes a full prediction cycle
type Runner interface {
	RunOnce(ctx context.Context) (*trend.Result, error)
}

// RunSummary is returned after a rerun
type RunSummary struct {
	RunID       string         `json:"run_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Counts      map[string]int `json:"counts"`
}

// TrendHandler handles prediction-related HTTP requests
type TrendHandler struct {
	artifacts ArtifactReader
	runner    Runner
	logger    *slog.Logger
}

// NewTrendHandler creates a new trend handler
func NewTrendHandler(artifacts ArtifactReader, runner Runner, logger *slog.Logger) *TrendHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TrendHandler{
		artifacts: artifacts,
		runner:    runner,
		logger:    logger,
	}
}

// GetFeed returns a stored artifact as written by the pipeline
func (h *TrendHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	feed := chi.URLParam(r, "feed")

	data, err := h.artifacts.Read(feed)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.respondWithError(w, http.StatusNotFound, "Predictions not found", nil)
		} else {
			h.respondWithError(w, http.StatusInternalServerError, "Failed to read predictions", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data) //nolint:errcheck // client went away
}

// Rerun runs the pipeline now and returns a summary of the new run
func (h *TrendHandler) Rerun(w http.ResponseWriter, r *http.Request) {
	result, err := h.runner.RunOnce(r.Context())
	if err != nil {
		if errors.Is(err, listening.ErrRunInProgress) {
			h.respondWithError(w, http.StatusConflict, "A prediction run is already in progress", nil)
		} else {
			h.respondWithError(w, http.StatusInternalServerError, "Prediction run failed", err)
		}
		return
	}

	counts := map[string]int{storage.CombinedFeed: len(result.Combined)}
	for _, p := range trend.Platforms {
		counts[storage.FeedForPlatform(p)] = len(result.ForPlatform(p))
	}

	respondWithJSON(w, http.StatusOK, RunSummary{
		RunID:       result.RunID,
		GeneratedAt: result.GeneratedAt,
		Counts:      counts,
	})
}

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Failed to marshal response")) //nolint:errcheck // client went away
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response) //nolint:errcheck // client went away
}

// Helper for error responses
func (h *TrendHandler) respondWithError(w http.ResponseWriter, code int, message string, err error) {
	if err != nil && code >= 500 {
		h.logger.Error("HTTP error", "code", code, "message", message, "error", err)
	}

	respondWithJSON(w, code, map[string]string{"error": message})
}
