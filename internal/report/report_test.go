package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derekprior/courtsim/internal/config"
	"github.com/derekprior/courtsim/internal/roster"
	"github.com/derekprior/courtsim/internal/schedule"
	"github.com/derekprior/courtsim/internal/strategy"
)

func run(t *testing.T, men, women, courts int, duration float64, minutes int) *schedule.Session {
	t.Helper()
	f := config.Facility{
		Courts:        courts,
		Men:           &men,
		Women:         &women,
		MatchDuration: config.MatchDuration(duration),
		PendingTarget: 3,
	}
	s, err := schedule.New(f, &strategy.WaitWeighted{}, schedule.Options{CheckInvariants: true})
	require.NoError(t, err)
	for range minutes {
		_, err := s.Tick()
		require.NoError(t, err)
	}
	return s
}

func TestBuild(t *testing.T) {
	s := run(t, 19, 19, 6, 17.5, 360)
	res := Build(s)

	assert.Equal(t, 360, res.Minutes)
	require.Len(t, res.Players, 38)
	require.Len(t, res.Courts, 6)

	games := 0
	for _, p := range res.Players {
		games += p.Games
		assert.Equal(t, p.Games, p.Mens+p.Womens+p.Mixed, p.ID)
		assert.LessOrEqual(t, p.AvgWait, p.MaxWait, p.ID)
	}
	assert.Equal(t, len(res.Matches)*4, games)

	typed := 0
	for _, n := range res.TypeCounts {
		typed += n
	}
	assert.Equal(t, len(res.Matches), typed)

	courtMatches := 0
	for _, c := range res.Courts {
		courtMatches += c.Matches
		assert.GreaterOrEqual(t, c.Utilization, 0.0)
		assert.LessOrEqual(t, c.Utilization, 1.0)
	}
	assert.Equal(t, len(res.Matches), courtMatches)

	assert.LessOrEqual(t, res.Games.Min, res.Games.Median)
	assert.LessOrEqual(t, res.Games.Median, res.Games.Max)
	assert.LessOrEqual(t, res.Waits.Median, res.Waits.P90)
	assert.LessOrEqual(t, res.Waits.P90, res.Waits.Max)
}

func TestBuildSingleCourt(t *testing.T) {
	// One court, two-minute matches: placements at 2, 5 and 8.
	s := run(t, 4, 4, 1, 2, 9)
	res := Build(s)

	require.Len(t, res.Matches, 3)
	assert.Equal(t, 3, res.Courts[0].Matches)
	// Two finished matches of 2 minutes plus one started at 8.
	assert.Equal(t, 5, res.Courts[0].BusyMinutes)
	assert.InDelta(t, 5.0/9.0, res.Courts[0].Utilization, 1e-9)
}

func TestBuildEmpty(t *testing.T) {
	s := run(t, 4, 4, 2, 11, 0)
	res := Build(s)

	assert.Empty(t, res.Matches)
	assert.Equal(t, Summary{}, res.Waits)
	assert.Zero(t, res.Games.Max)
	assert.Len(t, res.Warnings, 8, "every player never played")
	assert.Zero(t, res.Courts[0].Utilization)
}

func TestWarnings(t *testing.T) {
	players := []PlayerMetrics{
		{ID: "M1", Gender: roster.Male, Games: 3},
		{ID: "M2", Gender: roster.Male, Games: 1},
		{ID: "F1", Gender: roster.Female, Games: 2},
		{ID: "F2", Gender: roster.Female, Games: 1},
		{ID: "F3", Gender: roster.Female, Games: 0},
	}
	warnings := buildWarnings(players)
	assert.Equal(t, []string{
		"games imbalance among M players: min 1, max 3",
		"games imbalance among F players: min 0, max 2",
		"F3 never played",
	}, warnings)

	balanced := []PlayerMetrics{
		{ID: "M1", Gender: roster.Male, Games: 2},
		{ID: "M2", Gender: roster.Male, Games: 1},
	}
	assert.Empty(t, buildWarnings(balanced))
}

func TestPlayersByGender(t *testing.T) {
	res := Build(run(t, 5, 3, 2, 11, 30))
	assert.Len(t, res.PlayersByGender(roster.Male), 5)
	assert.Len(t, res.PlayersByGender(roster.Female), 3)
}

func TestSweepRowFor(t *testing.T) {
	res := Build(run(t, 6, 4, 2, 11, 120))
	row := SweepRowFor(res)

	assert.Equal(t, 10, row.Players)
	assert.Equal(t, 6, row.Men)
	assert.Equal(t, 4, row.Women)
	assert.Equal(t, len(res.Matches), row.Matches)
	assert.LessOrEqual(t, row.MinGames, row.MaxGames)
	assert.InDelta(t, float64(row.Matches*4)/10, row.AvgGames, 1e-9)
}
