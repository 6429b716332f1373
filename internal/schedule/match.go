package schedule

import (
	"fmt"

	"github.com/derekprior/courtsim/internal/roster"
)

// MatchType is the gender composition of a match.
type MatchType string

const (
	Mixed  MatchType = "mixed"
	Mens   MatchType = "mens"
	Womens MatchType = "womens"
)

// MatchTypes lists every type in report order.
var MatchTypes = []MatchType{Mixed, Mens, Womens}

// ParseMatchType parses the string form of a MatchType.
func ParseMatchType(s string) (MatchType, error) {
	for _, t := range MatchTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown match type %q", s)
}

// Label is the human-readable name used in reports.
func (t MatchType) Label() string {
	switch t {
	case Mixed:
		return "Mixed"
	case Mens:
		return "Mens"
	case Womens:
		return "Womens"
	default:
		return string(t)
	}
}

// Composition returns how many men and women a match of type t holds.
func (t MatchType) Composition() (men, women int) {
	switch t {
	case Mixed:
		return 2, 2
	case Mens:
		return 4, 0
	case Womens:
		return 0, 4
	default:
		return 0, 0
	}
}

// MatchID numbers matches in creation order, starting at 1.
type MatchID int

// Match is a group of four players. It is pending until Court is set,
// active until End is set.
type Match struct {
	ID       MatchID
	Type     MatchType
	Teams    [2][]roster.PlayerID
	Duration float64 // minutes
	Score    int
	Created  int // minute the match was composed
	Start    int // minute it took a court, -1 while pending
	Court    int // court id, 0 while pending
	End      int // minute it was retired, -1 until then
}

// Players returns the four player ids in team order.
func (m *Match) Players() []roster.PlayerID {
	out := make([]roster.PlayerID, 0, 4)
	out = append(out, m.Teams[0]...)
	return append(out, m.Teams[1]...)
}

func (m *Match) Pending() bool {
	return m.Court == 0
}

func (m *Match) Active() bool {
	return m.Court != 0 && m.End < 0
}

// Finished reports whether the match has used up its duration at minute now.
func (m *Match) Finished(now int) bool {
	return float64(now-m.Start) >= m.Duration
}

func (m *Match) String() string {
	return fmt.Sprintf("#%d %s %v vs %v", m.ID, m.Type, m.Teams[0], m.Teams[1])
}
