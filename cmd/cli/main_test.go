package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"car-identifier/pkg/config"
	"car-identifier/pkg/errors"
)

func writeTestJPEG(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4)), nil))
	path := filepath.Join(t.TempDir(), "car.jpg")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Model.Vision.APIKey = "test-key"
	cfg.Secrets.Provider = "memory"
	cfg.Log.Level = "error"
	return cfg
}

func TestParseIdentifyArgs(t *testing.T) {
	tests := []struct {
		args       []string
		wantPath   string
		wantRemote bool
		wantOK     bool
	}{
		{[]string{"car.jpg"}, "car.jpg", false, true},
		{[]string{"car.jpg", "--remote"}, "car.jpg", true, true},
		{[]string{"--remote", "car.jpg"}, "car.jpg", true, true},
		{nil, "", false, false},
		{[]string{"--remote"}, "", false, false},
		{[]string{"a.jpg", "b.jpg"}, "", false, false},
		{[]string{"a.jpg", "--verbose"}, "", false, false},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			path, remote, ok := parseIdentifyArgs(tt.args)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantPath, path)
				assert.Equal(t, tt.wantRemote, remote)
			}
		})
	}
}

func TestPrintConfig(t *testing.T) {
	var buf bytes.Buffer
	printConfig(&buf, testConfig())
	out := buf.String()
	assert.Contains(t, out, "api.addr=:8080")
	assert.Contains(t, out, "model.vision.provider=gemini")
	assert.Contains(t, out, "model.vision.api_key=config")
	assert.NotContains(t, out, "test-key")
}

func TestIdentifyLocal(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Make: Toyota\nModel: Corolla\nYear: 2020"}]}}]}`))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Model.Vision.BaseURL = srv.URL

	var out bytes.Buffer
	require.NoError(t, identifyLocal(context.Background(), cfg, writeTestJPEG(t), &out))
	assert.Contains(t, out.String(), "Vehicle Information")
	assert.Contains(t, out.String(), "Toyota")
	assert.Equal(t, 1, calls)
}

func TestIdentifyLocal_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Model.Vision.BaseURL = srv.URL

	var out bytes.Buffer
	err := identifyLocal(context.Background(), cfg, writeTestJPEG(t), &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.KindUnauthorized)
	assert.Empty(t, out.String())
}

func TestIdentifyLocal_MissingFile(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer srv.Close()

	cfg := testConfig()
	cfg.Model.Vision.BaseURL = srv.URL
	err := identifyLocal(context.Background(), cfg, filepath.Join(t.TempDir(), "none.jpg"), &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, 0, calls)
}

func TestIdentifyViaAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/identify", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req["image_base64"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"request_id":"r1","text":"Make: BMW","fields":{"Make":"BMW"},"ordered":[{"label":"Make","value":"BMW"}],"card":{"make":"BMW"}}`))
	}))
	defer srv.Close()
	t.Setenv("CAR_IDENTIFIER_API_URL", srv.URL)

	var out bytes.Buffer
	require.NoError(t, identifyViaAPI(context.Background(), testConfig(), writeTestJPEG(t), &out))
	assert.Contains(t, out.String(), "BMW")
}

func TestIdentifyViaAPI_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"Rate limit exceeded: Too many requests to Gemini API","kind":"rate_limited"}`))
	}))
	defer srv.Close()
	t.Setenv("CAR_IDENTIFIER_API_URL", srv.URL)

	err := identifyViaAPI(context.Background(), testConfig(), writeTestJPEG(t), &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, errors.KindRateLimited, errors.KindOf(err))
	assert.Contains(t, err.Error(), "Rate limit exceeded")
}

func TestCheckHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()
	t.Setenv("CAR_IDENTIFIER_API_URL", srv.URL)

	status, err := checkHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", status)
}
