// Package report turns a finished session into per-player, per-court and
// run-wide metrics.
package report

import (
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/derekprior/courtsim/internal/roster"
	"github.com/derekprior/courtsim/internal/schedule"
)

// PlayerMetrics holds per-player run statistics.
type PlayerMetrics struct {
	ID            roster.PlayerID
	Gender        roster.Gender
	Games         int
	Mens          int
	Womens        int
	Mixed         int
	AvgWait       float64
	MaxWait       float64
	MinutesPlayed int
}

type CourtMetrics struct {
	ID          int
	Matches     int
	BusyMinutes int
	Utilization float64 // 0..1 over the run
}

// Summary describes one distribution.
type Summary struct {
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	P90    float64
}

// Result is the output of a finished run.
type Result struct {
	Minutes    int
	Matches    []*schedule.Match // placed matches, by creation
	Players    []PlayerMetrics
	Courts     []CourtMetrics
	TypeCounts map[schedule.MatchType]int
	Games      Summary // games per player
	Waits      Summary // wait at each placement
	Warnings   []string
}

// Build collects metrics from the session as it stands.
func Build(s *schedule.Session) *Result {
	now := s.Now()
	res := &Result{
		Minutes:    now,
		TypeCounts: make(map[schedule.MatchType]int),
	}

	courts := make([]CourtMetrics, len(s.Courts()))
	for i, c := range s.Courts() {
		courts[i].ID = c.ID
	}
	for _, m := range s.Matches() {
		if m.Pending() {
			continue
		}
		res.Matches = append(res.Matches, m)
		res.TypeCounts[m.Type]++

		end := m.End
		if end < 0 {
			end = now
		}
		cm := &courts[m.Court-1]
		cm.Matches++
		cm.BusyMinutes += end - m.Start
	}
	for i := range courts {
		if now > 0 {
			courts[i].Utilization = float64(courts[i].BusyMinutes) / float64(now)
		}
	}
	res.Courts = courts

	var games []int
	var waits []int
	for _, p := range s.Registry().All() {
		pm := PlayerMetrics{
			ID:            p.ID,
			Gender:        p.Gender,
			Games:         p.GamesPlayed,
			Mens:          p.ByType[string(schedule.Mens)],
			Womens:        p.ByType[string(schedule.Womens)],
			Mixed:         p.ByType[string(schedule.Mixed)],
			MinutesPlayed: p.MinutesPlayed,
		}
		pm.AvgWait, pm.MaxWait = waitStats(p.Waits)
		res.Players = append(res.Players, pm)
		games = append(games, p.GamesPlayed)
		waits = append(waits, p.Waits...)
	}
	res.Games = summarize(games)
	res.Waits = summarize(waits)
	res.Warnings = buildWarnings(res.Players)
	return res
}

// PlayersByGender returns the per-player rows for gender g.
func (r *Result) PlayersByGender(g roster.Gender) []PlayerMetrics {
	var out []PlayerMetrics
	for _, p := range r.Players {
		if p.Gender == g {
			out = append(out, p)
		}
	}
	return out
}

func waitStats(waits []int) (avg, max float64) {
	if len(waits) == 0 {
		return 0, 0
	}
	data := stats.LoadRawData(waits)
	avg, _ = stats.Mean(data)
	max, _ = stats.Max(data)
	return avg, max
}

// summarize returns zeros for empty input.
func summarize(xs []int) Summary {
	if len(xs) == 0 {
		return Summary{}
	}
	data := stats.LoadRawData(xs)
	var s Summary
	s.Min, _ = stats.Min(data)
	s.Max, _ = stats.Max(data)
	s.Mean, _ = stats.Mean(data)
	s.Median, _ = stats.Median(data)
	s.P90, _ = stats.Percentile(data, 90)
	return s
}

func buildWarnings(players []PlayerMetrics) []string {
	var warnings []string

	for _, g := range []roster.Gender{roster.Male, roster.Female} {
		minGames, maxGames := -1, -1
		for _, p := range players {
			if p.Gender != g {
				continue
			}
			if minGames < 0 || p.Games < minGames {
				minGames = p.Games
			}
			if p.Games > maxGames {
				maxGames = p.Games
			}
		}
		if minGames >= 0 && maxGames-minGames > 1 {
			warnings = append(warnings, fmt.Sprintf(
				"games imbalance among %s players: min %d, max %d", g, minGames, maxGames))
		}
	}

	var idle []string
	for _, p := range players {
		if p.Games == 0 {
			idle = append(idle, string(p.ID))
		}
	}
	sort.Strings(idle)
	for _, id := range idle {
		warnings = append(warnings, fmt.Sprintf("%s never played", id))
	}
	return warnings
}

// SweepRow summarizes one run of a player-count sweep.
type SweepRow struct {
	Players  int
	Men      int
	Women    int
	Matches  int
	MinGames int
	MaxGames int
	AvgGames float64
	AvgWait  float64
	MaxWait  float64
}

// SweepRowFor condenses a run result into a sweep row.
func SweepRowFor(res *Result) SweepRow {
	row := SweepRow{
		Players:  len(res.Players),
		Matches:  len(res.Matches),
		MinGames: int(res.Games.Min),
		MaxGames: int(res.Games.Max),
		AvgGames: res.Games.Mean,
		AvgWait:  res.Waits.Mean,
		MaxWait:  res.Waits.Max,
	}
	for _, p := range res.Players {
		if p.Gender == roster.Male {
			row.Men++
		} else {
			row.Women++
		}
	}
	return row
}
