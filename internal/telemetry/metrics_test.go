package telemetry

import (
	"context"
	"ctchen222/tictactoe-timetravel/internal/config"
	"ctchen222/tictactoe-timetravel/internal/game"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestGameMetrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })

	m, err := NewGameMetrics(provider.Meter("test"))
	require.NoError(t, err)

	m.SessionCreated(ctx)
	m.MoveAccepted(ctx)
	m.MoveAccepted(ctx)
	m.Rejected(ctx, "move", game.ErrCellOccupied)
	m.Jumped(ctx)
	m.GameWon(ctx, "X")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	totals := map[string]int64{}
	for _, metric := range rm.ScopeMetrics[0].Metrics {
		sum, ok := metric.Data.(metricdata.Sum[int64])
		require.True(t, ok, "unexpected data for %s", metric.Name)
		for _, dp := range sum.DataPoints {
			totals[metric.Name] += dp.Value
		}
	}

	assert.Equal(t, int64(1), totals["tictactoe.sessions.created"])
	assert.Equal(t, int64(2), totals["tictactoe.moves.accepted"])
	assert.Equal(t, int64(1), totals["tictactoe.moves.rejected"])
	assert.Equal(t, int64(1), totals["tictactoe.history.jumps"])
	assert.Equal(t, int64(1), totals["tictactoe.games.won"])
}

func TestInitOtelDisabled(t *testing.T) {
	shutdown, err := InitOtel(context.Background(), configDisabled())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func configDisabled() config.Telemetry {
	return config.Telemetry{Enabled: false}
}
