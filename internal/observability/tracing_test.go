package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/monbattle/internal/config"
)

func TestSetupTracing_NoopWhenDisabled(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), config.TracingConfig{Endpoint: "http://192.0.2.1:4318"}, nil)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupTracing_NoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), config.TracingConfig{Enabled: true, ServiceName: "monbattle"}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, shutdown(ctx))
}

func TestSetupTracing_CreatesProvider(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	cfg := config.TracingConfig{
		Enabled:     true,
		ServiceName: "monbattle-test",
		// Non-routable, so nothing is exported.
		Endpoint:    "http://192.0.2.1:4318",
		Insecure:    true,
		SampleRatio: 1,
	}
	shutdown, err := SetupTracing(context.Background(), cfg, zap.New(core))
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("tracing enabled").Len())
}
