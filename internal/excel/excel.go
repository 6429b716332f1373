package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/courtsim/internal/config"
	"github.com/derekprior/courtsim/internal/report"
	"github.com/derekprior/courtsim/internal/schedule"
)

// Sheet names shared with the validator.
const (
	SummarySheet = "Summary"
	MatchesSheet = "Matches"
	PlayersSheet = "Players"
	CourtsSheet  = "Courts"
	SweepSheet   = "Sweep"
)

var (
	MatchHeaders  = []string{"ID", "Type", "Court", "Start", "End", "Team 1", "Team 1", "Team 2", "Team 2"}
	PlayerHeaders = []string{"ID", "Gender", "Games", "Mens", "Womens", "Mixed", "Avg Wait", "Max Wait"}
	CourtHeaders  = []string{"Court", "Matches", "Busy Minutes", "Utilization"}
	SweepHeaders  = []string{"Players", "Men", "Women", "Matches", "Min Games", "Max Games", "Avg Games", "Avg Wait", "Max Wait"}
)

// Generate creates an Excel workbook with the run summary, every placed
// match, per-player and per-court sheets.
func Generate(cfg *config.Config, res *report.Result) (*excelize.File, error) {
	f := excelize.NewFile()

	// Set default font for the workbook
	f.SetDefaultFont("Arial")

	st, err := newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("creating styles: %w", err)
	}

	if err := writeSummarySheet(f, st, cfg, res); err != nil {
		return nil, fmt.Errorf("writing summary sheet: %w", err)
	}
	if err := writeMatchesSheet(f, st, res); err != nil {
		return nil, fmt.Errorf("writing matches sheet: %w", err)
	}
	if err := writePlayersSheet(f, st, res); err != nil {
		return nil, fmt.Errorf("writing players sheet: %w", err)
	}
	if err := writeCourtsSheet(f, st, res); err != nil {
		return nil, fmt.Errorf("writing courts sheet: %w", err)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

// GenerateSweep creates a workbook holding only the Sweep sheet.
func GenerateSweep(rows []report.SweepRow) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetDefaultFont("Arial")

	st, err := newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("creating styles: %w", err)
	}
	if err := writeSweepSheet(f, st, rows); err != nil {
		return nil, fmt.Errorf("writing sweep sheet: %w", err)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

type styles struct {
	header  int
	cell    int
	number  int
	percent int
	warning int
}

func newStyles(f *excelize.File) (*styles, error) {
	var st styles
	var err error

	st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 16, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}
	st.cell, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 16, Family: "Arial"},
	})
	if err != nil {
		return nil, err
	}
	decimals := "0.0"
	st.number, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Size: 16, Family: "Arial"},
		Alignment:    &excelize.Alignment{Horizontal: "center"},
		CustomNumFmt: &decimals,
	})
	if err != nil {
		return nil, err
	}
	st.percent, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 16, Family: "Arial"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		NumFmt:    10, // 0.00%
	})
	if err != nil {
		return nil, err
	}
	st.warning, err = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
		Font: &excelize.Font{Size: 16, Family: "Arial"},
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func writeHeader(f *excelize.File, st *styles, sheet string, headers []string) {
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}
	f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), st.header)
	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeSummarySheet(f *excelize.File, st *styles, cfg *config.Config, res *report.Result) error {
	sheet := SummarySheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	writeHeader(f, st, sheet, []string{"Metric", "Value"})

	men, women := cfg.Facility.Headcount()
	rows := []struct {
		label string
		value any
	}{
		{"Courts", cfg.Facility.Courts},
		{"Men", men},
		{"Women", women},
		{"Match Duration", cfg.Facility.MatchDuration.Minutes()},
		{"Strategy", cfg.Strategy},
		{"Minutes", res.Minutes},
		{"Matches", len(res.Matches)},
	}
	for _, typ := range schedule.MatchTypes {
		rows = append(rows, struct {
			label string
			value any
		}{typ.Label() + " Matches", res.TypeCounts[typ]})
	}
	stats := []struct {
		label string
		value float64
	}{
		{"Games Min", res.Games.Min},
		{"Games Max", res.Games.Max},
		{"Games Mean", res.Games.Mean},
		{"Games Median", res.Games.Median},
		{"Wait Min", res.Waits.Min},
		{"Wait Max", res.Waits.Max},
		{"Wait Mean", res.Waits.Mean},
		{"Wait Median", res.Waits.Median},
		{"Wait P90", res.Waits.P90},
	}

	row := 2
	for _, r := range rows {
		f.SetCellValue(sheet, cellRef(1, row), r.label)
		f.SetCellValue(sheet, cellRef(2, row), r.value)
		f.SetCellStyle(sheet, cellRef(1, row), cellRef(2, row), st.cell)
		row++
	}
	for _, s := range stats {
		f.SetCellValue(sheet, cellRef(1, row), s.label)
		f.SetCellValue(sheet, cellRef(2, row), s.value)
		f.SetCellStyle(sheet, cellRef(1, row), cellRef(1, row), st.cell)
		f.SetCellStyle(sheet, cellRef(2, row), cellRef(2, row), st.number)
		row++
	}

	if len(res.Warnings) > 0 {
		row++
		f.SetCellValue(sheet, cellRef(1, row), "Warnings")
		f.SetCellStyle(sheet, cellRef(1, row), cellRef(2, row), st.header)
		row++
		for _, w := range res.Warnings {
			f.SetCellValue(sheet, cellRef(1, row), w)
			f.SetCellStyle(sheet, cellRef(1, row), cellRef(2, row), st.warning)
			row++
		}
	}

	// Set column widths (sized for Arial 16)
	f.SetColWidth(sheet, "A", "A", 28)
	f.SetColWidth(sheet, "B", "B", 18)
	return nil
}

func writeMatchesSheet(f *excelize.File, st *styles, res *report.Result) error {
	sheet := MatchesSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	writeHeader(f, st, sheet, MatchHeaders)

	for i, m := range res.Matches {
		row := i + 2
		f.SetCellValue(sheet, cellRef(1, row), int(m.ID))
		f.SetCellValue(sheet, cellRef(2, row), m.Type.Label())
		f.SetCellValue(sheet, cellRef(3, row), m.Court)
		f.SetCellValue(sheet, cellRef(4, row), m.Start)
		// Matches still on court at the end of the run have no End.
		if m.End >= 0 {
			f.SetCellValue(sheet, cellRef(5, row), m.End)
		}
		for j, id := range m.Players() {
			f.SetCellValue(sheet, cellRef(6+j, row), string(id))
		}
		f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(MatchHeaders), row), st.cell)
	}

	widths := map[string]float64{"A": 8, "B": 12, "C": 10, "D": 10, "E": 10}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}
	f.SetColWidth(sheet, "F", "I", 16)

	// Highlight matches still in progress.
	if lastRow := len(res.Matches) + 1; lastRow > 1 {
		cellRange := fmt.Sprintf("A2:I%d", lastRow)
		f.SetConditionalFormat(sheet, cellRange, []excelize.ConditionalFormatOptions{
			{
				Type:     "formula",
				Criteria: "$E2=\"\"",
				Format:   &st.warning,
			},
		})
	}
	return nil
}

func writePlayersSheet(f *excelize.File, st *styles, res *report.Result) error {
	sheet := PlayersSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	writeHeader(f, st, sheet, PlayerHeaders)

	for i, p := range res.Players {
		row := i + 2
		f.SetCellValue(sheet, cellRef(1, row), string(p.ID))
		f.SetCellValue(sheet, cellRef(2, row), string(p.Gender))
		f.SetCellValue(sheet, cellRef(3, row), p.Games)
		f.SetCellValue(sheet, cellRef(4, row), p.Mens)
		f.SetCellValue(sheet, cellRef(5, row), p.Womens)
		f.SetCellValue(sheet, cellRef(6, row), p.Mixed)
		f.SetCellValue(sheet, cellRef(7, row), p.AvgWait)
		f.SetCellValue(sheet, cellRef(8, row), p.MaxWait)
		f.SetCellStyle(sheet, cellRef(1, row), cellRef(6, row), st.cell)
		f.SetCellStyle(sheet, cellRef(7, row), cellRef(8, row), st.number)
	}

	f.SetColWidth(sheet, "A", "A", 16)
	f.SetColWidth(sheet, "B", "F", 10)
	f.SetColWidth(sheet, "G", "H", 14)

	// Players who never played get light red.
	if lastRow := len(res.Players) + 1; lastRow > 1 {
		zero := "0"
		f.SetConditionalFormat(sheet, fmt.Sprintf("C2:C%d", lastRow), []excelize.ConditionalFormatOptions{
			{
				Type:     "cell",
				Criteria: "==",
				Value:    zero,
				Format:   &st.warning,
			},
		})
	}
	return nil
}

func writeCourtsSheet(f *excelize.File, st *styles, res *report.Result) error {
	sheet := CourtsSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	writeHeader(f, st, sheet, CourtHeaders)

	for i, c := range res.Courts {
		row := i + 2
		f.SetCellValue(sheet, cellRef(1, row), c.ID)
		f.SetCellValue(sheet, cellRef(2, row), c.Matches)
		f.SetCellValue(sheet, cellRef(3, row), c.BusyMinutes)
		f.SetCellValue(sheet, cellRef(4, row), c.Utilization)
		f.SetCellStyle(sheet, cellRef(1, row), cellRef(3, row), st.cell)
		f.SetCellStyle(sheet, cellRef(4, row), cellRef(4, row), st.percent)
	}

	f.SetColWidth(sheet, "A", "B", 12)
	f.SetColWidth(sheet, "C", "D", 18)
	return nil
}

func writeSweepSheet(f *excelize.File, st *styles, rows []report.SweepRow) error {
	sheet := SweepSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	writeHeader(f, st, sheet, SweepHeaders)

	for i, r := range rows {
		row := i + 2
		values := []any{r.Players, r.Men, r.Women, r.Matches, r.MinGames, r.MaxGames, r.AvgGames, r.AvgWait, r.MaxWait}
		for j, v := range values {
			f.SetCellValue(sheet, cellRef(j+1, row), v)
		}
		f.SetCellStyle(sheet, cellRef(1, row), cellRef(6, row), st.cell)
		f.SetCellStyle(sheet, cellRef(7, row), cellRef(9, row), st.number)
	}

	f.SetColWidth(sheet, "A", colLetter(len(SweepHeaders)), 14)
	return nil
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
