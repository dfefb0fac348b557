// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mdhender/aresmem/config"
	"github.com/mdhender/aresmem/web/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Addr:       config.DefaultAddr,
		DataPath:   "/data/ares.jsonl",
		PublicMode: true,
		RateBurst:  20,
		CORS:       true,
		Metrics:    true,
	}
}

// newTestHandler builds the server handler with a private metrics registry.
func newTestHandler(t *testing.T, cfg *config.Config) (http.Handler, error) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return newHandler(cfg, testLoader(t), reg, reg)
}

func testLoader(t *testing.T) *store.Loader {
	t.Helper()
	fs := afero.NewMemMapFs()
	data := "{\"case_id\":\"c1\",\"step_id\":1,\"fps\":30}\n{\"case_id\":\"c2\",\"step_id\":1}\n"
	require.NoError(t, afero.WriteFile(fs, "/data/ares.jsonl", []byte(data), 0644))
	l, err := store.NewLoaderFS(fs, "/data/ares.jsonl")
	require.NoError(t, err)
	return l
}

func TestNewHandler_ServesStats(t *testing.T) {
	h, err := newTestHandler(t, testConfig())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, float64(2), got["total_records"])
}

func TestNewHandler_GatedWithKey(t *testing.T) {
	cfg := testConfig()
	cfg.PublicMode = false
	cfg.APIKey = "s3cret"
	cfg.Metrics = false
	h, err := newTestHandler(t, cfg)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cases", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cases?key=s3cret", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "metrics disabled")
}

func TestNewHandler_CORSPreflight(t *testing.T) {
	h, err := newTestHandler(t, testConfig())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodOptions, "/search", nil)
	req.Header.Set("Origin", "http://example.test")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://example.test", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewHandler_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 1
	cfg.RateBurst = 1
	cfg.Metrics = false
	h, err := newTestHandler(t, cfg)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestNewHandler_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := newHandler(testConfig(), testLoader(t), reg, reg)
	require.NoError(t, err)
	_, err = newHandler(testConfig(), testLoader(t), reg, reg)
	assert.Error(t, err)
}

func TestNewHandler_MetricsServesInjectedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := newHandler(testConfig(), testLoader(t), reg, reg)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "aresmem_dataset_loaded 1")
	assert.Contains(t, rec.Body.String(), "aresmem_dataset_records 2")
}

func TestNewHandler_TrustProxy(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 1
	cfg.RateBurst = 1
	cfg.Metrics = false
	cfg.TrustProxy = true
	h, err := newTestHandler(t, cfg)
	require.NoError(t, err)

	for _, fwd := range []string{"198.51.100.1", "198.51.100.2"} {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Forwarded-For", fwd)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "forwarded client %s has its own bucket", fwd)
	}
}
