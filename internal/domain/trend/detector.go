// internal/domain/trend/detector.go

package trend

import (
	"context"
	"encoding/json"
	"time"
)

// Predictor runs one prediction pass over the current raw inputs
type Predictor interface {
	// Run loads the inputs, scores them and persists the artifacts
	Run(ctx context.Context) (*Result, error)
}

// Adapter turns one raw platform record into a PostSignal
type Adapter interface {
	// Platform returns the platform this adapter decodes
	Platform() Platform

	// Decode parses a single record. now is the reference time used when
	// the record carries no usable timestamp.
	Decode(raw json.RawMessage, now time.Time) (PostSignal, error)
}

// Source provides the raw records of a platform
type Source interface {
	// Load returns the raw records for a platform. A platform with no
	// input yields an empty slice.
	Load(ctx context.Context, p Platform) ([]json.RawMessage, error)
}

// Sink persists the artifacts of a run
type Sink interface {
	// Write stores the full result set
	Write(ctx context.Context, r *Result) error
}
