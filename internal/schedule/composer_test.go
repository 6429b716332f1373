package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derekprior/courtsim/internal/roster"
	"github.com/derekprior/courtsim/internal/strategy"
)

func TestRotation(t *testing.T) {
	assert.Equal(t, []MatchType{Mens, Womens, Mixed}, Rotation(Mixed))
	assert.Equal(t, []MatchType{Womens, Mixed, Mens}, Rotation(Mens))
	assert.Equal(t, []MatchType{Mixed, Mens, Womens}, Rotation(Womens))
	assert.Equal(t, []MatchType{Mixed, Mens, Womens}, Rotation(""))
}

func TestComposeMixed(t *testing.T) {
	r := roster.Generate(3, 3)
	r.Get("M3").WaitTime = 10
	r.Get("F2").WaitTime = 4
	r.Get("F3").WaitTime = 4

	p, ok := Compose(r, &strategy.WaitWeighted{}, "")
	require.True(t, ok)
	assert.Equal(t, Mixed, p.Type)

	// Best men pair is the first containing M3, best women pair the first
	// containing a wait of 4.
	assert.Equal(t, [2][]roster.PlayerID{{"M1", "F1"}, {"M3", "F2"}}, p.Teams)
	assert.Equal(t, 30, p.Score)
}

func TestComposeRotatesType(t *testing.T) {
	r := roster.Generate(4, 4)
	s := &strategy.WaitWeighted{}

	p, ok := Compose(r, s, Mixed)
	require.True(t, ok)
	assert.Equal(t, Mens, p.Type)
	assert.Equal(t, [2][]roster.PlayerID{{"M1", "M2"}, {"M3", "M4"}}, p.Teams)

	p, ok = Compose(r, s, Mens)
	require.True(t, ok)
	assert.Equal(t, Womens, p.Type)

	p, ok = Compose(r, s, Womens)
	require.True(t, ok)
	assert.Equal(t, Mixed, p.Type)
}

func TestComposeFallsThrough(t *testing.T) {
	s := &strategy.WaitWeighted{}

	t.Run("mixed preferred but only men available", func(t *testing.T) {
		r := roster.Generate(5, 1)
		p, ok := Compose(r, s, "")
		require.True(t, ok)
		assert.Equal(t, Mens, p.Type)
	})

	t.Run("last type is the final fallback", func(t *testing.T) {
		r := roster.Generate(0, 4)
		p, ok := Compose(r, s, Womens)
		require.True(t, ok)
		assert.Equal(t, Womens, p.Type)
	})
}

func TestComposeNoMatch(t *testing.T) {
	r := roster.Generate(3, 0)
	before := make(map[roster.PlayerID]roster.Status)
	for _, p := range r.All() {
		before[p.ID] = p.Status
	}

	_, ok := Compose(r, &strategy.WaitWeighted{}, "")
	assert.False(t, ok)
	for _, p := range r.All() {
		assert.Equal(t, before[p.ID], p.Status)
	}
}

func TestComposeSkipsClaimedPlayers(t *testing.T) {
	r := roster.Generate(6, 0)
	r.Claim([]roster.PlayerID{"M1", "M2"})
	r.MarkInMatch([]roster.PlayerID{"M3"})

	_, ok := Compose(r, &strategy.WaitWeighted{}, "")
	assert.False(t, ok, "only three men are waiting")

	r.MarkAvailable([]roster.PlayerID{"M3"}, 0)
	p, ok := Compose(r, &strategy.WaitWeighted{}, "")
	require.True(t, ok)
	assert.ElementsMatch(t, []roster.PlayerID{"M3", "M4", "M5", "M6"}, append(p.Teams[0], p.Teams[1]...))
}

func TestComposePrefersFewerGames(t *testing.T) {
	r := roster.Generate(5, 0)
	for _, p := range r.All() {
		p.WaitTime = 5
	}
	r.Get("M1").GamesPlayed = 3

	p, ok := Compose(r, &strategy.WaitWeighted{}, Womens)
	require.True(t, ok)
	assert.NotContains(t, append(p.Teams[0], p.Teams[1]...), roster.PlayerID("M1"))
}
