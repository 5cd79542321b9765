package telemetry_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-swipe-client/internal/config"
	"github.com/jrsteele09/go-swipe-client/internal/telemetry"
	"github.com/stretchr/testify/require"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := telemetry.Init(context.Background(), config.FromValues(nil))
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInit_Enabled(t *testing.T) {
	cfg := config.FromValues(map[string]string{"OTEL_EXPORTER_OTLP_ENDPOINT": "127.0.0.1:4318"})
	shutdown, err := telemetry.Init(context.Background(), cfg)
	require.NoError(t, err)

	// Nothing was recorded, so shutdown has nothing to export.
	require.NoError(t, shutdown(context.Background()))
}
