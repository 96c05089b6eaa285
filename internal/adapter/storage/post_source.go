// internal/adapter/storage/post_source.go

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"trendcast/internal/domain/trend"
)

// RawFileName returns the scraper output file name for a platform
func RawFileName(p trend.Platform) string {
	return strings.ToLower(string(p)) + "_raw.json"
}

// PostSource reads raw scraper output from a data directory
type PostSource struct {
	dir    string
	logger *slog.Logger
}

// NewPostSource creates a new post source rooted at dir
func NewPostSource(dir string, logger *slog.Logger) *PostSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostSource{
		dir:    dir,
		logger: logger,
	}
}

// Load reads the JSON array of posts for a platform. A missing file is
// treated as an empty array; unreadable or malformed files are errors.
func (s *PostSource) Load(ctx context.Context, p trend.Platform) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, RawFileName(p))
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("raw input not found, using empty dataset", "platform", p, "path", path)
		return []json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if records == nil {
		records = []json.RawMessage{}
	}
	return records, nil
}
