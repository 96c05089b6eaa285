package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"trendcast/internal/adapter/storage"
	"trendcast/internal/config"
	"trendcast/internal/domain/trend"
)

type stubArtifacts struct{}

func (stubArtifacts) Read(feed string) ([]byte, error) {
	if feed != "instagram" {
		return nil, storage.ErrNotFound
	}
	return []byte("[]\n"), nil
}

type stubRunner struct{}

func (stubRunner) RunOnce(ctx context.Context) (*trend.Result, error) {
	return &trend.Result{RunID: "run-1"}, nil
}

func testDeps() Dependencies {
	return Dependencies{
		Artifacts: stubArtifacts{},
		Runner:    stubRunner{},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRouter(t *testing.T) {
	srv := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 0, CorsOrigins: []string{"*"}}, testDeps())

	tests := []struct {
		method string
		path   string
		code   int
	}{
		{http.MethodGet, "/api/health", http.StatusOK},
		{http.MethodGet, "/api/v1/predictions/instagram", http.StatusOK},
		{http.MethodGet, "/api/v1/predictions/unknown", http.StatusNotFound},
		{http.MethodPost, "/api/v1/predictions/rerun", http.StatusOK},
		{http.MethodGet, "/ws/predictions", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestRouter_CORS(t *testing.T) {
	router := NewRouter(config.ServerConfig{CorsOrigins: []string{"https://dashboard.example.com"}}, testDeps())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://dashboard.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
