package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestDBCollectorStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewDBCollector(nil).Run(ctx, time.Millisecond)
	}()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
}

func TestRegistryGathers(t *testing.T) {
	AuthAttempts.WithLabelValues("login", "failure").Inc()
	DomainWrites.WithLabelValues("events", "create").Inc()

	count, err := testutil.GatherAndCount(Registry, "zeelus_auth_attempts_total", "zeelus_domain_writes_total")
	require.NoError(t, err)
	require.GreaterOrEqual(t, count, 2)
}
