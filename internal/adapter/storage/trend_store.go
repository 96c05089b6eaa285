// internal/adapter/storage/trend_store.go

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"trendcast/internal/domain/trend"
)

// DB is the subset of *pgxpool.Pool the trend store uses
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

const schema = `
	CREATE TABLE IF NOT EXISTS prediction_runs (
		id           UUID PRIMARY KEY,
		generated_at TIMESTAMPTZ NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS predictions (
		run_id                        UUID NOT NULL REFERENCES prediction_runs(id) ON DELETE CASCADE,
		platform                      TEXT NOT NULL,
		rank                          INT NOT NULL,
		hashtag                       TEXT NOT NULL,
		score                         DOUBLE PRECISION NOT NULL,
		predicted_trend               TEXT NOT NULL,
		predicted_engagement_next_24h BIGINT NOT NULL,
		likely_platforms              TEXT[] NOT NULL,
		top_posts                     JSONB NOT NULL,
		PRIMARY KEY (run_id, platform, rank)
	);
	CREATE TABLE IF NOT EXISTS raw_posts (
		id           BIGSERIAL PRIMARY KEY,
		run_id       UUID NOT NULL,
		platform     TEXT NOT NULL,
		payload      JSONB NOT NULL,
		collected_at TIMESTAMPTZ NOT NULL
	);
`

// TrendStore archives prediction runs in PostgreSQL
type TrendStore struct {
	db DB
}

// NewTrendStore creates a new trend store
func NewTrendStore(db DB) *TrendStore {
	return &TrendStore{
		db: db,
	}
}

// EnsureSchema creates the tables used by the store if they do not exist
func (s *TrendStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("error creating schema: %w", err)
	}
	return nil
}

// SaveRun stores a run and all of its rankings in one transaction
func (s *TrendStore) SaveRun(ctx context.Context, r *trend.Result) (err error) {
	if r.RunID == "" {
		return fmt.Errorf("run id is required")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx) //nolint:errcheck // original error is returned
		}
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO prediction_runs (id, generated_at) VALUES ($1, $2)`,
		r.RunID, r.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting run: %w", err)
	}

	const insertPrediction = `
		INSERT INTO predictions (
			run_id, platform, rank, hashtag, score, predicted_trend,
			predicted_engagement_next_24h, likely_platforms, top_posts
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, p := range trend.Platforms {
		for i, t := range r.ForPlatform(p) {
			topPostsJSON, mErr := json.Marshal(t.TopPosts)
			if mErr != nil {
				err = fmt.Errorf("error marshaling top posts: %w", mErr)
				return err
			}

			_, err = tx.Exec(ctx, insertPrediction,
				r.RunID,
				string(p),
				i+1,
				t.Hashtag,
				t.Score,
				string(t.PredictedTrend),
				t.PredictedEngagement,
				[]string{string(p)},
				topPostsJSON,
			)
			if err != nil {
				return fmt.Errorf("error inserting %s prediction: %w", p, err)
			}
		}
	}

	for i, c := range r.Combined {
		topPostsJSON, mErr := json.Marshal(c.TopPosts)
		if mErr != nil {
			err = fmt.Errorf("error marshaling top posts: %w", mErr)
			return err
		}

		platforms := make([]string, 0, len(c.LikelyPlatforms))
		for _, lp := range c.LikelyPlatforms {
			platforms = append(platforms, string(lp))
		}

		_, err = tx.Exec(ctx, insertPrediction,
			r.RunID,
			string(trend.PlatformCombined),
			i+1,
			c.Hashtag,
			c.CombinedScore,
			string(c.PredictedTrend),
			c.PredictedEngagement,
			platforms,
			topPostsJSON,
		)
		if err != nil {
			return fmt.Errorf("error inserting combined prediction: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing run: %w", err)
	}
	return nil
}

// SaveRawPosts archives the raw input records of a run
func (s *TrendStore) SaveRawPosts(
	ctx context.Context,
	runID string,
	platform trend.Platform,
	records []json.RawMessage,
	collectedAt time.Time,
) (err error) {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx) //nolint:errcheck // original error is returned
		}
	}()

	for _, rec := range records {
		_, err = tx.Exec(ctx,
			`INSERT INTO raw_posts (run_id, platform, payload, collected_at) VALUES ($1, $2, $3, $4)`,
			runID, string(platform), []byte(rec), collectedAt,
		)
		if err != nil {
			return fmt.Errorf("error inserting raw %s post: %w", platform, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing raw posts: %w", err)
	}
	return nil
}
