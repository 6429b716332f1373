package schedule

import (
	"github.com/derekprior/courtsim/internal/roster"
)

// Court is one of the facility's fixed courts. Players is empty when the
// court is free and holds exactly four ids otherwise.
type Court struct {
	ID      int
	MatchID MatchID
	Players []roster.PlayerID
}

// Occupied reports whether a match is being played on the court.
func (c *Court) Occupied() bool {
	return len(c.Players) > 0
}

// allocator owns the courts, the pending queue and the active set.
type allocator struct {
	courts  []Court
	pending []*Match // FIFO by creation
	active  []*Match // by placement
}

func newAllocator(n int) *allocator {
	a := &allocator{courts: make([]Court, n)}
	for i := range a.courts {
		a.courts[i].ID = i + 1
	}
	return a
}

func (a *allocator) freeCourts() int {
	n := 0
	for i := range a.courts {
		if !a.courts[i].Occupied() {
			n++
		}
	}
	return n
}

// lowestFreeCourt returns the index of the first free court, or -1.
func (a *allocator) lowestFreeCourt() int {
	for i := range a.courts {
		if !a.courts[i].Occupied() {
			return i
		}
	}
	return -1
}

func (a *allocator) enqueue(m *Match) {
	a.pending = append(a.pending, m)
}

// retire removes every active match that has run its duration at minute
// now, frees its court and releases its players.
func (a *allocator) retire(now int, r *roster.Registry) []*Match {
	var retired []*Match
	kept := a.active[:0]
	for _, m := range a.active {
		if !m.Finished(now) {
			kept = append(kept, m)
			continue
		}
		m.End = now
		court := &a.courts[m.Court-1]
		court.Players = nil
		court.MatchID = 0

		players := m.Players()
		r.AddMinutesPlayed(players, now-m.Start)
		r.MarkAvailable(players, now)
		retired = append(retired, m)
	}
	clear(a.active[len(kept):])
	a.active = kept
	return retired
}

// assign drains the pending queue onto free courts, lowest court first.
func (a *allocator) assign(now int, r *roster.Registry) []*Match {
	var placed []*Match
	for len(a.pending) > 0 {
		ci := a.lowestFreeCourt()
		if ci < 0 {
			break
		}
		m := a.pending[0]
		a.pending[0] = nil
		a.pending = a.pending[1:]

		players := m.Players()
		m.Start = now
		m.Court = a.courts[ci].ID
		a.courts[ci].MatchID = m.ID
		a.courts[ci].Players = players

		r.MarkInMatch(players)
		r.IncrementGamesPlayed(players)
		r.RecordPlacement(string(m.Type), m.Teams)
		a.active = append(a.active, m)
		placed = append(placed, m)
	}
	return placed
}
