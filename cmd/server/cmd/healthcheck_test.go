package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPerformHealthCheck(t *testing.T) {
	tests := []struct {
		name          string
		statusCode    int
		responseBody  any
		expectHealthy bool
		expectError   bool
		expectStatus  string
	}{
		{
			name:          "ready",
			statusCode:    http.StatusOK,
			responseBody:  map[string]any{"status": "ready", "checks": map[string]any{"database": map[string]string{"status": "pass"}}},
			expectHealthy: true,
			expectStatus:  "ready",
		},
		{
			name:         "unavailable",
			statusCode:   http.StatusServiceUnavailable,
			responseBody: map[string]any{"status": "unavailable"},
			expectStatus: "unavailable",
		},
		{
			name:         "ok status with error code",
			statusCode:   http.StatusInternalServerError,
			responseBody: map[string]any{"status": "ok"},
			expectStatus: "ok",
		},
		{
			name:         "invalid response",
			statusCode:   http.StatusOK,
			responseBody: "not json",
			expectError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				if str, ok := tt.responseBody.(string); ok {
					fmt.Fprint(w, str)
					return
				}
				_ = json.NewEncoder(w).Encode(tt.responseBody)
			}))
			defer server.Close()

			result := performHealthCheck(context.Background(), server.URL, time.Second)
			require.Equal(t, tt.expectHealthy, result.IsHealthy)
			require.Equal(t, tt.statusCode, result.StatusCode)
			if tt.expectError {
				require.NotEmpty(t, result.Error)
				return
			}
			require.Empty(t, result.Error)
			require.Equal(t, tt.expectStatus, result.Status)
			require.GreaterOrEqual(t, result.LatencyMs, int64(0))
		})
	}
}

func TestPerformHealthCheckTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	result := performHealthCheck(context.Background(), server.URL, 50*time.Millisecond)
	require.False(t, result.IsHealthy)
	require.NotEmpty(t, result.Error)
}

func TestHealthcheckCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/readyz" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	}))
	defer server.Close()

	output, err := execute(t, "healthcheck", "--url", server.URL+"/readyz")
	require.NoError(t, err)
	require.Contains(t, output, "ready")

	_, err = execute(t, "healthcheck", "--url", "http://127.0.0.1:1/readyz", "--timeout", "200ms")
	require.Error(t, err)
}
