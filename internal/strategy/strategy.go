package strategy

import (
	"fmt"

	"github.com/derekprior/courtsim/internal/roster"
)

const (
	WaitWeight      = 3
	GamesWeight     = 2
	PartnerPenalty  = 3
	OpponentPenalty = 2
)

// Scorer rates a candidate group of players. Higher is better.
type Scorer interface {
	Score(r *roster.Registry, group []roster.PlayerID) int
}

// Names lists the strategies Get understands.
var Names = []string{"wait_weighted", "wait_weighted_history"}

// Get returns a Scorer by name.
func Get(name string) (Scorer, error) {
	switch name {
	case "wait_weighted":
		return &WaitWeighted{}, nil
	case "wait_weighted_history":
		return &WaitWeightedHistory{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy: %q", name)
	}
}

// WaitWeighted favors the group holding the longest-waiting player and
// penalizes the group holding the most-played one:
// 3 × max(wait) − 2 × max(games).
type WaitWeighted struct{}

func (s *WaitWeighted) Score(r *roster.Registry, group []roster.PlayerID) int {
	if len(group) == 0 {
		return 0
	}
	maxWait, maxGames := 0, 0
	for _, id := range group {
		p := r.Get(id)
		if p.WaitTime > maxWait {
			maxWait = p.WaitTime
		}
		if p.GamesPlayed > maxGames {
			maxGames = p.GamesPlayed
		}
	}
	return WaitWeight*maxWait - GamesWeight*maxGames
}

// WaitWeightedHistory is WaitWeighted minus a penalty for every pair in the
// group that has already partnered or opposed each other.
type WaitWeightedHistory struct {
	WaitWeighted
}

func (s *WaitWeightedHistory) Score(r *roster.Registry, group []roster.PlayerID) int {
	score := s.WaitWeighted.Score(r, group)
	for i, a := range group {
		pa := r.Get(a)
		for _, b := range group[i+1:] {
			if pa.Partners[b] > 0 {
				score -= PartnerPenalty
			}
			if pa.Opponents[b] > 0 {
				score -= OpponentPenalty
			}
		}
	}
	return score
}

// BestOf returns the highest-scoring group. Ties go to the earliest group.
// It reports false when groups is empty.
func BestOf(r *roster.Registry, s Scorer, groups [][]roster.PlayerID) ([]roster.PlayerID, int, bool) {
	if len(groups) == 0 {
		return nil, 0, false
	}
	best := 0
	bestScore := s.Score(r, groups[0])
	for i := 1; i < len(groups); i++ {
		if score := s.Score(r, groups[i]); score > bestScore {
			best, bestScore = i, score
		}
	}
	return groups[best], bestScore, true
}
