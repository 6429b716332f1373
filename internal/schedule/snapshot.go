package schedule

import (
	"fmt"

	"github.com/derekprior/courtsim/internal/roster"
)

type PlayerView struct {
	ID          roster.PlayerID `json:"id"`
	Gender      roster.Gender   `json:"gender"`
	WaitTime    int             `json:"waitTime"`
	GamesPlayed int             `json:"gamesPlayed"`
	InMatch     bool            `json:"inMatch"`
	Queued      bool            `json:"queued"`
	Court       int             `json:"courtId,omitempty"`
}

type CourtView struct {
	ID        int               `json:"id"`
	Occupied  bool              `json:"occupied"`
	MatchID   MatchID           `json:"matchId,omitempty"`
	Type      MatchType         `json:"type,omitempty"`
	Players   []roster.PlayerID `json:"players"`
	Remaining float64           `json:"remaining,omitempty"`
}

// Snapshot is everything a renderer needs to draw one minute.
type Snapshot struct {
	Time      int          `json:"time"`
	Players   []PlayerView `json:"players"`
	Courts    []CourtView  `json:"courts"`
	Active    int          `json:"active"`
	Pending   int          `json:"pending"`
	Completed int          `json:"completed"`
}

// Snapshot captures the current state. It shares nothing with the session.
func (s *Session) Snapshot() Snapshot {
	courtOf := make(map[roster.PlayerID]int)
	byID := make(map[MatchID]*Match)
	for _, m := range s.courts.active {
		byID[m.ID] = m
	}

	snap := Snapshot{
		Time:    s.now,
		Active:  len(s.courts.active),
		Pending: len(s.courts.pending),
	}
	for _, m := range s.matches {
		if m.End >= 0 {
			snap.Completed++
		}
	}

	for _, c := range s.courts.courts {
		cv := CourtView{
			ID:       c.ID,
			Occupied: c.Occupied(),
			MatchID:  c.MatchID,
			Players:  append([]roster.PlayerID{}, c.Players...),
		}
		if m, ok := byID[c.MatchID]; ok {
			cv.Type = m.Type
			cv.Remaining = m.Duration - float64(s.now-m.Start)
		}
		for _, id := range c.Players {
			courtOf[id] = c.ID
		}
		snap.Courts = append(snap.Courts, cv)
	}

	for _, p := range s.registry.All() {
		snap.Players = append(snap.Players, PlayerView{
			ID:          p.ID,
			Gender:      p.Gender,
			WaitTime:    p.WaitTime,
			GamesPlayed: p.GamesPlayed,
			InMatch:     p.InMatch(),
			Queued:      p.Status == roster.Queued,
			Court:       courtOf[p.ID],
		})
	}
	return snap
}

// CheckInvariants verifies the cross-collection rules: a player is on a
// court iff listed by an active match, queued iff listed by a pending one,
// never in two matches, and every court holds zero or four players.
func (s *Session) CheckInvariants() error {
	owner := make(map[roster.PlayerID]*Match)
	check := func(m *Match) error {
		players := m.Players()
		if len(players) != 4 {
			return fmt.Errorf("%w: match %d has %d players", ErrInvariant, m.ID, len(players))
		}
		men, women := 0, 0
		for _, id := range players {
			p := s.registry.Get(id)
			if p == nil {
				return fmt.Errorf("%w: match %d lists unknown player %s", ErrInvariant, m.ID, id)
			}
			if prev, ok := owner[id]; ok {
				return fmt.Errorf("%w: player %s is in matches %d and %d", ErrInvariant, id, prev.ID, m.ID)
			}
			owner[id] = m
			if p.Gender == roster.Male {
				men++
			} else {
				women++
			}
		}
		wantMen, wantWomen := m.Type.Composition()
		if men != wantMen || women != wantWomen {
			return fmt.Errorf("%w: %s match %d has %d men and %d women", ErrInvariant, m.Type, m.ID, men, women)
		}
		return nil
	}

	for _, m := range s.courts.pending {
		if err := check(m); err != nil {
			return err
		}
	}
	for _, m := range s.courts.active {
		if err := check(m); err != nil {
			return err
		}
	}

	for _, p := range s.registry.All() {
		m, listed := owner[p.ID]
		switch {
		case p.InMatch() && (!listed || !m.Active()):
			return fmt.Errorf("%w: player %s is marked in a match but no active match lists them", ErrInvariant, p.ID)
		case !p.InMatch() && listed && m.Active():
			return fmt.Errorf("%w: player %s is on court %d but not marked in a match", ErrInvariant, p.ID, m.Court)
		case p.Status == roster.Queued && (!listed || !m.Pending()):
			return fmt.Errorf("%w: player %s is queued but no pending match lists them", ErrInvariant, p.ID)
		case p.Status == roster.Waiting && listed:
			return fmt.Errorf("%w: player %s is waiting but listed in match %d", ErrInvariant, p.ID, m.ID)
		}
	}

	occupied := 0
	for _, c := range s.courts.courts {
		switch len(c.Players) {
		case 0:
			continue
		case 4:
		default:
			return fmt.Errorf("%w: court %d holds %d players", ErrInvariant, c.ID, len(c.Players))
		}
		occupied++
		for _, id := range c.Players {
			if p := s.registry.Get(id); p == nil || !p.InMatch() {
				return fmt.Errorf("%w: court %d holds %s who is not in a match", ErrInvariant, c.ID, id)
			}
			if m := owner[id]; m == nil || m.Court != c.ID {
				return fmt.Errorf("%w: court %d holds %s who belongs elsewhere", ErrInvariant, c.ID, id)
			}
		}
	}
	if occupied != len(s.courts.active) {
		return fmt.Errorf("%w: %d courts occupied but %d matches active", ErrInvariant, occupied, len(s.courts.active))
	}
	return nil
}
