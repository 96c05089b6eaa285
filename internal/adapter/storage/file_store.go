// internal/adapter/storage/file_store.go

package storage

import (
	"bytes"
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

// ErrNotFound is returned when an artifact has not been produced yet
var ErrNotFound = errors.New("not found")

// CombinedFeed names the cross-platform artifact
const CombinedFeed = "combined"

// Feeds lists every artifact the file store writes
var Feeds = []string{"instagram", "tiktok", "facebook", CombinedFeed}

// FeedFileName returns the artifact file name for a feed
func FeedFileName(feed string) string {
	return feed + "_trends.json"
}

// FeedForPlatform returns the feed name of a platform
func FeedForPlatform(p trend.Platform) string {
	return strings.ToLower(string(p))
}

// FileStore writes prediction artifacts as pretty-printed JSON files
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileStore creates a new file store writing into dir
func NewFileStore(dir string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{
		dir:    dir,
		logger: logger,
	}
}

// Dir returns the output directory
func (s *FileStore) Dir() string {
	return s.dir
}

// Write stages all four artifacts and only then moves them into place, so
// a failed run leaves the previous set untouched
func (s *FileStore) Write(ctx context.Context, r *trend.Result) error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	payloads := map[string]any{CombinedFeed: r.Combined}
	if r.Combined == nil {
		payloads[CombinedFeed] = []trend.CombinedTrendResult{}
	}
	for _, p := range trend.Platforms {
		payloads[FeedForPlatform(p)] = r.ForPlatform(p)
	}

	staged := make(map[string]string, len(Feeds))
	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp) //nolint:errcheck // best effort cleanup of staged files
		}
	}

	for _, feed := range Feeds {
		if err := ctx.Err(); err != nil {
			cleanup()
			return err
		}

		tmp, err := s.stage(feed, payloads[feed])
		if err != nil {
			cleanup()
			return fmt.Errorf("staging %s: %w", feed, err)
		}
		staged[feed] = tmp
	}

	for _, feed := range Feeds {
		dst := filepath.Join(s.dir, FeedFileName(feed))
		if err := os.Rename(staged[feed], dst); err != nil {
			cleanup()
			return fmt.Errorf("replacing %s: %w", dst, err)
		}
		delete(staged, feed)
		s.logger.Debug("saved artifact", "path", dst)
	}
	return nil
}

func (s *FileStore) stage(feed string, payload any) (string, error) {
	data, err := Encode(payload)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(s.dir, "."+feed+"-*.tmp")
	if err != nil {
		return "", err
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()           //nolint:errcheck // write error takes precedence
		_ = os.Remove(f.Name()) //nolint:errcheck // best effort cleanup
		return "", err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()           //nolint:errcheck // sync error takes precedence
		_ = os.Remove(f.Name()) //nolint:errcheck // best effort cleanup
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name()) //nolint:errcheck // best effort cleanup
		return "", err
	}
	if err := os.Chmod(f.Name(), 0o644); err != nil {
		_ = os.Remove(f.Name()) //nolint:errcheck // best effort cleanup
		return "", err
	}
	return f.Name(), nil
}

// Read returns the raw JSON of a stored artifact
func (s *FileStore) Read(feed string) ([]byte, error) {
	if !validFeed(feed) {
		return nil, ErrNotFound
	}

	data, err := os.ReadFile(filepath.Join(s.dir, FeedFileName(feed)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s artifact: %w", feed, err)
	}
	return data, nil
}

// Encode renders v as 4-space indented JSON without HTML escaping
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func validFeed(feed string) bool {
	for _, f := range Feeds {
		if f == feed {
			return true
		}
	}
	return false
}
