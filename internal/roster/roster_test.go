package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	r := Generate(3, 2)
	require.Equal(t, 5, r.Len())

	ids := make([]PlayerID, 0, r.Len())
	for _, p := range r.All() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []PlayerID{"M1", "M2", "M3", "F1", "F2"}, ids)
	assert.Equal(t, Female, r.Get("F2").Gender)
	assert.Nil(t, r.Get("X9"))
}

func TestAddDuplicate(t *testing.T) {
	r := New()
	require.NoError(t, r.Add("Ann", Female))
	assert.Error(t, r.Add("Ann", Female))
}

func TestMustAddPanicsOnDuplicate(t *testing.T) {
	r := Generate(1, 0)
	assert.Panics(t, func() { r.mustAdd("M1", Male) })
	assert.NotPanics(t, func() { Generate(20, 20) })
	assert.Equal(t, 1, r.Len())
}

func TestListAvailable(t *testing.T) {
	r := Generate(3, 3)
	r.Claim([]PlayerID{"M2"})
	r.MarkInMatch([]PlayerID{"F1"})

	assert.Equal(t, []PlayerID{"M1", "M3"}, r.ListAvailable(Male))
	assert.Equal(t, []PlayerID{"F2", "F3"}, r.ListAvailable(Female))
	assert.Equal(t, []PlayerID{"M1", "M3", "F2", "F3"}, r.ListAvailable(""))
}

func TestWaitAccrual(t *testing.T) {
	r := Generate(2, 2)

	t.Run("waiting and queued players accrue", func(t *testing.T) {
		r.Claim([]PlayerID{"M1"})
		r.AccrueWait(1)
		assert.Equal(t, 1, r.Get("M1").WaitTime)
		assert.Equal(t, 1, r.Get("F2").WaitTime)
	})

	t.Run("playing players do not accrue", func(t *testing.T) {
		r.MarkInMatch([]PlayerID{"M1", "M2"})
		r.AccrueWait(2)
		assert.Equal(t, 1, r.Get("M1").WaitTime)
		assert.Equal(t, 2, r.Get("F1").WaitTime)
	})

	t.Run("released players restart at zero", func(t *testing.T) {
		r.IncrementGamesPlayed([]PlayerID{"M1", "M2"})
		r.MarkAvailable([]PlayerID{"M1", "M2"}, 3)
		r.AccrueWait(3)
		assert.Equal(t, 0, r.Get("M1").WaitTime)
		assert.Equal(t, 1, r.Get("M1").GamesPlayed)
		assert.False(t, r.Get("M1").InMatch())

		r.AccrueWait(4)
		assert.Equal(t, 1, r.Get("M1").WaitTime)
	})
}

func TestRecordPlacement(t *testing.T) {
	r := Generate(2, 2)
	r.Get("M1").WaitTime = 7
	r.RecordPlacement("mixed", [2][]PlayerID{{"M1", "F1"}, {"M2", "F2"}})

	m1 := r.Get("M1")
	assert.Equal(t, 1, m1.ByType["mixed"])
	assert.Equal(t, []int{7}, m1.Waits)
	assert.Equal(t, map[PlayerID]int{"F1": 1}, m1.Partners)
	assert.Equal(t, map[PlayerID]int{"M2": 1, "F2": 1}, m1.Opponents)
}

func TestSorted(t *testing.T) {
	r := Generate(2, 2)
	assert.Equal(t, []PlayerID{"M1", "M2", "F2"}, r.Sorted([]PlayerID{"F2", "M2", "M1"}))
}

func TestParseGender(t *testing.T) {
	g, err := ParseGender("f")
	require.NoError(t, err)
	assert.Equal(t, Female, g)

	_, err = ParseGender("x")
	assert.Error(t, err)
}
