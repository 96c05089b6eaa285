// internal/service/listening/detector.go

package listening

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"trendcast/internal/domain/trend"
)

// ErrRunInProgress is returned when a run is requested while another one
// is still writing its artifacts
var ErrRunInProgress = errors.New("prediction run already in progress")

// TrendPredictorConfig contains configuration for the trend predictor
type TrendPredictorConfig struct {
	TopN     int
	HalfLife float64
}

// TrendPredictor implements the trend.Predictor interface
type TrendPredictor struct {
	source   trend.Source
	sink     trend.Sink
	adapters []trend.Adapter
	config   TrendPredictorConfig
	now      func() time.Time
	logger   *slog.Logger
	mu       sync.Mutex
}

// Option customizes a TrendPredictor
type Option func(*TrendPredictor)

// WithClock replaces the wall clock used as the run's reference time
func WithClock(now func() time.Time) Option {
	return func(tp *TrendPredictor) {
		tp.now = now
	}
}

// WithAdapters replaces the default platform adapters
func WithAdapters(adapters ...trend.Adapter) Option {
	return func(tp *TrendPredictor) {
		tp.adapters = adapters
	}
}

// NewTrendPredictor creates a new trend predictor
func NewTrendPredictor(
	source trend.Source,
	sink trend.Sink,
	config TrendPredictorConfig,
	logger *slog.Logger,
	opts ...Option,
) *TrendPredictor {
	if config.TopN <= 0 {
		config.TopN = trend.DefaultTopN
	}
	if config.HalfLife <= 0 {
		config.HalfLife = trend.DefaultHalfLife
	}
	if logger == nil {
		logger = slog.Default()
	}

	tp := &TrendPredictor{
		source:   source,
		sink:     sink,
		adapters: DefaultAdapters(),
		config:   config,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(tp)
	}
	return tp
}

// Run loads every platform, scores it and writes the artifacts.
// Concurrent calls fail fast with ErrRunInProgress.
func (tp *TrendPredictor) Run(ctx context.Context) (*trend.Result, error) {
	if !tp.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer tp.mu.Unlock()

	inputs := make(map[trend.Platform][]json.RawMessage, len(tp.adapters))
	for _, a := range tp.adapters {
		records, err := tp.source.Load(ctx, a.Platform())
		if err != nil {
			return nil, fmt.Errorf("loading %s posts: %w", a.Platform(), err)
		}
		inputs[a.Platform()] = records
	}

	result := tp.Process(inputs, tp.now())

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if tp.sink != nil {
		if err := tp.sink.Write(ctx, result); err != nil {
			return nil, fmt.Errorf("writing predictions: %w", err)
		}
	}

	tp.logger.Info("prediction run completed",
		"generated_at", result.GeneratedAt,
		"combined", len(result.Combined),
	)
	return result, nil
}

// Process scores the raw records of every platform against now. It does
// no I/O, so identical inputs and now give identical results.
func (tp *TrendPredictor) Process(inputs map[trend.Platform][]json.RawMessage, now time.Time) *trend.Result {
	result := &trend.Result{
		GeneratedAt: now,
		Platforms:   make(map[trend.Platform][]trend.TrendResult, len(tp.adapters)),
		Inputs:      make(map[trend.Platform][]json.RawMessage, len(tp.adapters)),
	}

	rankings := make([][]trend.TrendResult, 0, len(tp.adapters))
	for _, a := range tp.adapters {
		records := inputs[a.Platform()]
		result.Inputs[a.Platform()] = records

		ranking := tp.processPlatform(a, records, now)
		result.Platforms[a.Platform()] = ranking
		rankings = append(rankings, ranking)
	}

	result.Combined = Combine(rankings, tp.config.TopN)
	return result
}

func (tp *TrendPredictor) processPlatform(a trend.Adapter, records []json.RawMessage, now time.Time) []trend.TrendResult {
	agg := NewAggregator(now, tp.config.HalfLife)

	skipped := 0
	for i, raw := range records {
		post, err := a.Decode(raw, now)
		if err == nil {
			err = agg.Add(post)
		}
		if err != nil {
			skipped++
			tp.logger.Warn("skipping malformed post",
				"platform", a.Platform(),
				"index", i,
				"error", err,
			)
		}
	}

	ranking := agg.Rank(a.Platform(), tp.config.TopN)
	tp.logger.Debug("platform scored",
		"platform", a.Platform(),
		"posts", len(records),
		"skipped", skipped,
		"hashtags", agg.Len(),
		"ranked", len(ranking),
	)
	return ranking
}
