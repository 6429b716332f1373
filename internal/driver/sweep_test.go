package driver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derekprior/courtsim/internal/config"
)

func TestSweep(t *testing.T) {
	cfg := config.Default()
	cfg.Run.Minutes = 120

	rows, err := Sweep(context.Background(), cfg, SweepOptions{From: 20, To: 30, Step: 2, Parallel: 3})
	require.NoError(t, err)
	require.Len(t, rows, 6)

	for i, row := range rows {
		assert.Equal(t, 20+2*i, row.Players)
		assert.Equal(t, row.Players, row.Men+row.Women)
		assert.Equal(t, row.Players/2, row.Women)
		assert.Positive(t, row.Matches)
		assert.LessOrEqual(t, row.MinGames, row.MaxGames)
	}
}

func TestSweepMatchesSingleRun(t *testing.T) {
	cfg := config.Default()
	cfg.Run.Minutes = 90

	serial, err := Sweep(context.Background(), cfg, SweepOptions{From: 24, To: 28, Step: 4})
	require.NoError(t, err)
	parallel, err := Sweep(context.Background(), cfg, SweepOptions{From: 24, To: 28, Step: 4, Parallel: 2})
	require.NoError(t, err)
	assert.Equal(t, serial, parallel, "runs are deterministic")
}

func TestSweepInvalidRange(t *testing.T) {
	cfg := config.Default()
	for _, opts := range []SweepOptions{
		{From: 20, To: 60, Step: 0},
		{From: 40, To: 20, Step: 2},
	} {
		_, err := Sweep(context.Background(), cfg, opts)
		assert.True(t, errors.Is(err, config.ErrInvalid), err)
	}
}
