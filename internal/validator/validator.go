package validator

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/courtsim/internal/excel"
	"github.com/derekprior/courtsim/internal/roster"
	"github.com/derekprior/courtsim/internal/schedule"
)

// Violation represents a problem found in a run report.
type Violation struct {
	Sheet   string
	Row     int
	Type    string // "error" or "warning"
	Message string
}

// Validate reads a run report workbook and checks the Matches sheet against
// itself and against the Players sheet.
func Validate(path string) ([]Violation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	var violations []Violation

	matches, bad, err := readMatches(f)
	if err != nil {
		return nil, fmt.Errorf("reading matches: %w", err)
	}
	violations = append(violations, bad...)

	players, bad, err := readPlayers(f)
	if err != nil {
		return nil, fmt.Errorf("reading players: %w", err)
	}
	violations = append(violations, bad...)

	// Hard rules
	violations = append(violations, checkMatchSize(matches)...)
	violations = append(violations, checkComposition(matches, players)...)
	violations = append(violations, checkCourtOverlap(matches)...)
	violations = append(violations, checkPlayerOverlap(matches)...)
	violations = append(violations, checkGameCounts(matches, players)...)

	// Soft rules
	violations = append(violations, checkGamesBalance(players)...)

	return violations, nil
}

type parsedMatch struct {
	Row     int
	ID      int
	Type    schedule.MatchType
	Court   int
	Start   int
	End     int // math.MaxInt while still on court
	Players []string
}

type parsedPlayer struct {
	Row    int
	ID     string
	Gender roster.Gender
	Games  int
	ByType map[schedule.MatchType]int
}

func readMatches(f *excelize.File) ([]parsedMatch, []Violation, error) {
	rows, err := f.GetRows(excel.MatchesSheet)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", excel.MatchesSheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%s is empty", excel.MatchesSheet)
	}

	var matches []parsedMatch
	var bad []Violation
	for i, row := range rows {
		if i == 0 || len(row) == 0 || row[0] == "" {
			continue
		}
		m, err := parseMatchRow(row)
		if err != nil {
			bad = append(bad, Violation{
				Sheet:   excel.MatchesSheet,
				Row:     i + 1,
				Type:    "error",
				Message: fmt.Sprintf("unreadable match row: %v", err),
			})
			continue
		}
		m.Row = i + 1
		matches = append(matches, m)
	}
	return matches, bad, nil
}

func parseMatchRow(row []string) (parsedMatch, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var m parsedMatch
	var err error
	if m.ID, err = strconv.Atoi(cell(0)); err != nil {
		return m, fmt.Errorf("bad id %q", cell(0))
	}
	if m.Type, err = schedule.ParseMatchType(strings.ToLower(cell(1))); err != nil {
		return m, err
	}
	if m.Court, err = strconv.Atoi(cell(2)); err != nil {
		return m, fmt.Errorf("bad court %q", cell(2))
	}
	if m.Start, err = strconv.Atoi(cell(3)); err != nil {
		return m, fmt.Errorf("bad start %q", cell(3))
	}
	m.End = math.MaxInt
	if cell(4) != "" {
		if m.End, err = strconv.Atoi(cell(4)); err != nil {
			return m, fmt.Errorf("bad end %q", cell(4))
		}
		if m.End < m.Start {
			return m, fmt.Errorf("ends at %d before it starts at %d", m.End, m.Start)
		}
	}
	for i := 5; i < len(excel.MatchHeaders); i++ {
		if id := cell(i); id != "" {
			m.Players = append(m.Players, id)
		}
	}
	return m, nil
}

func readPlayers(f *excelize.File) (map[string]parsedPlayer, []Violation, error) {
	rows, err := f.GetRows(excel.PlayersSheet)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", excel.PlayersSheet, err)
	}

	players := make(map[string]parsedPlayer)
	var bad []Violation
	for i, row := range rows {
		if i == 0 || len(row) < 6 || row[0] == "" {
			continue
		}
		p, err := parsePlayerRow(row)
		if err == nil {
			if _, dup := players[p.ID]; dup {
				err = fmt.Errorf("duplicate player %s", p.ID)
			}
		}
		if err != nil {
			bad = append(bad, Violation{
				Sheet:   excel.PlayersSheet,
				Row:     i + 1,
				Type:    "error",
				Message: fmt.Sprintf("unreadable player row: %v", err),
			})
			continue
		}
		p.Row = i + 1
		players[p.ID] = p
	}
	return players, bad, nil
}

func parsePlayerRow(row []string) (parsedPlayer, error) {
	p := parsedPlayer{ID: strings.TrimSpace(row[0]), ByType: make(map[schedule.MatchType]int)}
	g, err := roster.ParseGender(strings.TrimSpace(row[1]))
	if err != nil {
		return p, err
	}
	p.Gender = g

	counts := make([]int, 4)
	for i := range counts {
		if counts[i], err = strconv.Atoi(strings.TrimSpace(row[2+i])); err != nil {
			return p, fmt.Errorf("bad %s %q", excel.PlayerHeaders[2+i], row[2+i])
		}
	}
	p.Games = counts[0]
	p.ByType[schedule.Mens] = counts[1]
	p.ByType[schedule.Womens] = counts[2]
	p.ByType[schedule.Mixed] = counts[3]
	return p, nil
}

func checkMatchSize(matches []parsedMatch) []Violation {
	var violations []Violation
	for _, m := range matches {
		distinct := make(map[string]bool)
		for _, id := range m.Players {
			distinct[id] = true
		}
		if len(m.Players) != 4 || len(distinct) != 4 {
			violations = append(violations, Violation{
				Sheet:   excel.MatchesSheet,
				Row:     m.Row,
				Type:    "error",
				Message: fmt.Sprintf("match %d has %d distinct players (want 4)", m.ID, len(distinct)),
			})
		}
	}
	return violations
}

func checkComposition(matches []parsedMatch, players map[string]parsedPlayer) []Violation {
	var violations []Violation
	for _, m := range matches {
		men, women := 0, 0
		for _, id := range m.Players {
			p, ok := players[id]
			if !ok {
				violations = append(violations, Violation{
					Sheet:   excel.MatchesSheet,
					Row:     m.Row,
					Type:    "error",
					Message: fmt.Sprintf("match %d lists unknown player %s", m.ID, id),
				})
				continue
			}
			if p.Gender == roster.Male {
				men++
			} else {
				women++
			}
		}
		wantMen, wantWomen := m.Type.Composition()
		if len(m.Players) == 4 && (men != wantMen || women != wantWomen) && men+women == 4 {
			violations = append(violations, Violation{
				Sheet:   excel.MatchesSheet,
				Row:     m.Row,
				Type:    "error",
				Message: fmt.Sprintf("%s match %d has %d men and %d women", m.Type.Label(), m.ID, men, women),
			})
		}
	}
	return violations
}

func overlaps(a, b parsedMatch) bool {
	return a.Start < b.End && b.Start < a.End
}

func checkCourtOverlap(matches []parsedMatch) []Violation {
	byCourt := make(map[int][]parsedMatch)
	for _, m := range matches {
		byCourt[m.Court] = append(byCourt[m.Court], m)
	}

	var courts []int
	for c := range byCourt {
		courts = append(courts, c)
	}
	sort.Ints(courts)

	var violations []Violation
	for _, c := range courts {
		ms := byStart(byCourt[c])
		for i := 1; i < len(ms); i++ {
			if overlaps(ms[i-1], ms[i]) {
				violations = append(violations, Violation{
					Sheet:   excel.MatchesSheet,
					Row:     ms[i].Row,
					Type:    "error",
					Message: fmt.Sprintf("matches %d and %d overlap on court %d", ms[i-1].ID, ms[i].ID, c),
				})
			}
		}
	}
	return violations
}

func checkPlayerOverlap(matches []parsedMatch) []Violation {
	byPlayer := make(map[string][]parsedMatch)
	for _, m := range matches {
		for _, id := range m.Players {
			byPlayer[id] = append(byPlayer[id], m)
		}
	}

	var ids []string
	for id := range byPlayer {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var violations []Violation
	for _, id := range ids {
		ms := byStart(byPlayer[id])
		for i := 1; i < len(ms); i++ {
			if overlaps(ms[i-1], ms[i]) {
				violations = append(violations, Violation{
					Sheet:   excel.MatchesSheet,
					Row:     ms[i].Row,
					Type:    "error",
					Message: fmt.Sprintf("%s plays matches %d and %d at the same time", id, ms[i-1].ID, ms[i].ID),
				})
			}
		}
	}
	return violations
}

func byStart(ms []parsedMatch) []parsedMatch {
	sorted := append([]parsedMatch(nil), ms...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	return sorted
}

func checkGameCounts(matches []parsedMatch, players map[string]parsedPlayer) []Violation {
	games := make(map[string]int)
	byType := make(map[string]map[schedule.MatchType]int)
	for _, m := range matches {
		for _, id := range m.Players {
			games[id]++
			if byType[id] == nil {
				byType[id] = make(map[schedule.MatchType]int)
			}
			byType[id][m.Type]++
		}
	}

	var violations []Violation
	for _, p := range sortedPlayers(players) {
		if games[p.ID] != p.Games {
			violations = append(violations, Violation{
				Sheet:   excel.PlayersSheet,
				Row:     p.Row,
				Type:    "error",
				Message: fmt.Sprintf("%s lists %d games but appears in %d matches", p.ID, p.Games, games[p.ID]),
			})
			continue
		}
		for _, typ := range schedule.MatchTypes {
			if byType[p.ID][typ] != p.ByType[typ] {
				violations = append(violations, Violation{
					Sheet:   excel.PlayersSheet,
					Row:     p.Row,
					Type:    "error",
					Message: fmt.Sprintf("%s lists %d %s games but appears in %d", p.ID, p.ByType[typ], typ.Label(), byType[p.ID][typ]),
				})
			}
		}
	}
	return violations
}

func checkGamesBalance(players map[string]parsedPlayer) []Violation {
	var violations []Violation
	for _, g := range []roster.Gender{roster.Male, roster.Female} {
		var lo, hi *parsedPlayer
		for _, p := range sortedPlayers(players) {
			if p.Gender != g {
				continue
			}
			if lo == nil || p.Games < lo.Games {
				lo = &p
			}
			if hi == nil || p.Games > hi.Games {
				hi = &p
			}
		}
		if lo != nil && hi.Games-lo.Games > 1 {
			violations = append(violations, Violation{
				Sheet: excel.PlayersSheet,
				Row:   hi.Row,
				Type:  "warning",
				Message: fmt.Sprintf("%s players range from %d games (%s) to %d (%s)",
					g, lo.Games, lo.ID, hi.Games, hi.ID),
			})
		}
	}
	return violations
}

func sortedPlayers(players map[string]parsedPlayer) []parsedPlayer {
	out := make([]parsedPlayer, 0, len(players))
	for _, p := range players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Row < out[j].Row })
	return out
}
