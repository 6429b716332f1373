package schedule

import (
	"github.com/derekprior/courtsim/internal/combo"
	"github.com/derekprior/courtsim/internal/roster"
	"github.com/derekprior/courtsim/internal/strategy"
)

// Proposal is a composed group that has not been queued yet.
type Proposal struct {
	Type  MatchType
	Teams [2][]roster.PlayerID
	Score int
}

// Rotation returns the order in which match types are attempted after a
// match of type last. An empty last means no match has been composed yet.
func Rotation(last MatchType) []MatchType {
	switch last {
	case Mixed:
		return []MatchType{Mens, Womens, Mixed}
	case Mens:
		return []MatchType{Womens, Mixed, Mens}
	default:
		return []MatchType{Mixed, Mens, Womens}
	}
}

// Compose picks the next match from the waiting players. It tries each
// type in rotation order and stops at the first that can be filled. It
// never mutates the registry; ok is false when no type can be filled.
func Compose(r *roster.Registry, s strategy.Scorer, last MatchType) (Proposal, bool) {
	for _, t := range Rotation(last) {
		if p, ok := composeType(r, s, t); ok {
			return p, true
		}
	}
	return Proposal{}, false
}

func composeType(r *roster.Registry, s strategy.Scorer, t MatchType) (Proposal, bool) {
	switch t {
	case Mixed:
		men, ok := bestGroup(r, s, roster.Male, 2)
		if !ok {
			return Proposal{}, false
		}
		women, ok := bestGroup(r, s, roster.Female, 2)
		if !ok {
			return Proposal{}, false
		}
		p := Proposal{
			Type: Mixed,
			Teams: [2][]roster.PlayerID{
				{men[0], women[0]},
				{men[1], women[1]},
			},
		}
		p.Score = s.Score(r, append(append([]roster.PlayerID(nil), men...), women...))
		return p, true

	case Mens, Womens:
		g := roster.Male
		if t == Womens {
			g = roster.Female
		}
		group, ok := bestGroup(r, s, g, 4)
		if !ok {
			return Proposal{}, false
		}
		return Proposal{
			Type:  t,
			Teams: [2][]roster.PlayerID{group[:2:2], group[2:]},
			Score: s.Score(r, group),
		}, true
	}
	return Proposal{}, false
}

func bestGroup(r *roster.Registry, s strategy.Scorer, g roster.Gender, k int) ([]roster.PlayerID, bool) {
	avail := r.ListAvailable(g)
	if len(avail) < k {
		return nil, false
	}
	group, _, ok := strategy.BestOf(r, s, combo.Choose(avail, k))
	return group, ok
}
