package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

type healthcheckOptions struct {
	url     string
	port    int
	timeout time.Duration
}

// HealthResponse is the subset of the /readyz body the probe inspects.
type HealthResponse struct {
	Status string                     `json:"status"`
	Checks map[string]json.RawMessage `json:"checks,omitempty"`
}

// HealthCheckResult is the outcome of one probe.
type HealthCheckResult struct {
	URL        string
	StatusCode int
	Status     string
	IsHealthy  bool
	LatencyMs  int64
	Error      string
}

func newHealthcheckCommand() *cobra.Command {
	opts := &healthcheckOptions{}
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check if the server is ready",
		Long: `Performs a readiness check by calling the /readyz endpoint.

This command is used by Docker HEALTHCHECK to monitor container health.
It exits with code 0 if the server is ready, non-zero otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			url := opts.url
			if url == "" {
				url = fmt.Sprintf("http://localhost:%d/readyz", opts.port)
			}
			result := performHealthCheck(cmd.Context(), url, opts.timeout)
			if !result.IsHealthy {
				if result.Error != "" {
					return fmt.Errorf("health check failed: %s", result.Error)
				}
				return fmt.Errorf("unhealthy: status=%s code=%d", result.Status, result.StatusCode)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%dms)\n", result.Status, result.LatencyMs)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "", "health check URL (default: http://localhost:{port}/readyz)")
	cmd.Flags().IntVar(&opts.port, "port", 5000, "server port used to build the default URL")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "request timeout")
	return cmd
}

func performHealthCheck(ctx context.Context, url string, timeout time.Duration) HealthCheckResult {
	result := HealthCheckResult{URL: url}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	result.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	var body HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		result.Error = fmt.Sprintf("invalid response: %v", err)
		return result
	}
	result.Status = body.Status
	result.IsHealthy = resp.StatusCode == http.StatusOK && (body.Status == "ready" || body.Status == "ok")
	return result
}
