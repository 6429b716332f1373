// Package roster is the single owner of player scheduling state. Matches
// and courts refer to players by PlayerID and resolve them here.
package roster

import (
	"fmt"
	"sort"
	"strings"
)

// PlayerID is a player's unique name within a registry.
type PlayerID string

// Gender decides which match types a player can fill.
type Gender string

const (
	Male   Gender = "M"
	Female Gender = "F"
)

// ParseGender accepts "M" or "F" in either case.
func ParseGender(s string) (Gender, error) {
	switch Gender(strings.ToUpper(s)) {
	case Male:
		return Male, nil
	case Female:
		return Female, nil
	default:
		return "", fmt.Errorf("unknown gender %q", s)
	}
}

// Status is where a player is in the wait → queued → playing cycle.
type Status int

const (
	// Waiting players are free to be picked by the composer.
	Waiting Status = iota
	// Queued players are claimed by a pending match that has no court yet.
	Queued
	// Playing players are on a court.
	Playing
)

func (s Status) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Queued:
		return "queued"
	case Playing:
		return "playing"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Player holds one player's mutable scheduling attributes.
type Player struct {
	ID          PlayerID
	Gender      Gender
	Status      Status
	WaitTime    int // minutes since the last match ended, or since the start
	GamesPlayed int

	// ByType counts placements per match type label.
	ByType map[string]int
	// Waits records WaitTime at each placement.
	Waits         []int
	MinutesPlayed int
	Partners      map[PlayerID]int
	Opponents     map[PlayerID]int

	releasedAt int
	seq        int
}

// InMatch reports whether the player is on a court.
func (p *Player) InMatch() bool {
	return p.Status == Playing
}

// Registry owns every player for one simulation run.
type Registry struct {
	players map[PlayerID]*Player
	order   []PlayerID
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{players: make(map[PlayerID]*Player)}
}

// Generate builds a registry of men M1..Mn followed by women F1..Fn.
func Generate(men, women int) *Registry {
	r := New()
	for i := range men {
		r.mustAdd(PlayerID(fmt.Sprintf("M%d", i+1)), Male)
	}
	for i := range women {
		r.mustAdd(PlayerID(fmt.Sprintf("F%d", i+1)), Female)
	}
	return r
}

// mustAdd is Add for ids that are unique by construction.
func (r *Registry) mustAdd(id PlayerID, g Gender) {
	if err := r.Add(id, g); err != nil {
		panic(err)
	}
}

// Add registers a new player. Adding an existing id is an error.
func (r *Registry) Add(id PlayerID, g Gender) error {
	if _, ok := r.players[id]; ok {
		return fmt.Errorf("player %s already registered", id)
	}
	r.players[id] = &Player{
		ID:         id,
		Gender:     g,
		ByType:     make(map[string]int),
		Partners:   make(map[PlayerID]int),
		Opponents:  make(map[PlayerID]int),
		releasedAt: -1,
		seq:        len(r.order),
	}
	r.order = append(r.order, id)
	return nil
}

// Get returns the player for id, or nil.
func (r *Registry) Get(id PlayerID) *Player {
	return r.players[id]
}

// Len is the number of registered players.
func (r *Registry) Len() int {
	return len(r.order)
}

// All returns every player in registration order.
func (r *Registry) All() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.players[id])
	}
	return out
}

// ListAvailable returns waiting players of gender g in registration order.
// An empty gender returns waiting players of both genders.
func (r *Registry) ListAvailable(g Gender) []PlayerID {
	var out []PlayerID
	for _, id := range r.order {
		p := r.players[id]
		if p.Status != Waiting {
			continue
		}
		if g != "" && p.Gender != g {
			continue
		}
		out = append(out, id)
	}
	return out
}

// Claim marks waiting players as held by a pending match.
func (r *Registry) Claim(ids []PlayerID) {
	for _, id := range ids {
		r.mustGet(id).Status = Queued
	}
}

// MarkInMatch puts players on a court. WaitTime is left as it was.
func (r *Registry) MarkInMatch(ids []PlayerID) {
	for _, id := range ids {
		r.mustGet(id).Status = Playing
	}
}

// MarkAvailable releases players from a finished match at minute now and
// restarts their wait clock. GamesPlayed is untouched.
func (r *Registry) MarkAvailable(ids []PlayerID, now int) {
	for _, id := range ids {
		p := r.mustGet(id)
		p.Status = Waiting
		p.WaitTime = 0
		p.releasedAt = now
	}
}

// IncrementGamesPlayed is called once per player when a match is placed.
func (r *Registry) IncrementGamesPlayed(ids []PlayerID) {
	for _, id := range ids {
		r.mustGet(id).GamesPlayed++
	}
}

// AccrueWait adds a minute to every player not on a court, except those
// released at minute now.
func (r *Registry) AccrueWait(now int) {
	for _, p := range r.players {
		if p.Status == Playing || p.releasedAt == now {
			continue
		}
		p.WaitTime++
	}
}

// RecordPlacement updates per-player history for a match placed with the
// given teams.
func (r *Registry) RecordPlacement(typ string, teams [2][]PlayerID) {
	for side, team := range teams {
		other := teams[1-side]
		for _, id := range team {
			p := r.mustGet(id)
			p.ByType[typ]++
			p.Waits = append(p.Waits, p.WaitTime)
			for _, mate := range team {
				if mate != id {
					p.Partners[mate]++
				}
			}
			for _, opp := range other {
				p.Opponents[opp]++
			}
		}
	}
}

// AddMinutesPlayed credits every player in ids with minutes on court.
func (r *Registry) AddMinutesPlayed(ids []PlayerID, minutes int) {
	for _, id := range ids {
		r.mustGet(id).MinutesPlayed += minutes
	}
}

// Sorted returns ids ordered by registration.
func (r *Registry) Sorted(ids []PlayerID) []PlayerID {
	out := append([]PlayerID(nil), ids...)
	sort.SliceStable(out, func(i, j int) bool {
		return r.mustGet(out[i]).seq < r.mustGet(out[j]).seq
	})
	return out
}

func (r *Registry) mustGet(id PlayerID) *Player {
	p, ok := r.players[id]
	if !ok {
		panic(fmt.Sprintf("roster: unknown player %s", id))
	}
	return p
}
