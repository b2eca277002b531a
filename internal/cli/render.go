package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/zapponejosh/feast-calendar-api/internal/calendar"
)

// Cell styles, one per feast class.
var (
	styleTitle   = color.New(color.Bold, color.Underline)
	styleMajor   = color.New(color.FgRed, color.Bold)
	styleYearly  = color.New(color.FgYellow)
	styleMonthly = color.New(color.FgCyan)
	styleRest    = color.New(color.Faint)
	styleToday   = color.New(color.ReverseVideo)
	styleLabel   = color.New(color.Bold)
)

func classStyle(c calendar.FeastClass) *color.Color {
	switch c {
	case calendar.FeastClassMajor:
		return styleMajor
	case calendar.FeastClassYearly:
		return styleYearly
	case calendar.FeastClassMonthly:
		return styleMonthly
	}
	return nil
}

// printGrid writes the month as a weekday table followed by a feast legend.
func printGrid(w io.Writer, grid *calendar.MonthGrid) {
	fmt.Fprintln(w, styleTitle.Sprint(grid.Title))

	tbl := uitable.New()
	tbl.Separator = " "

	header := make([]interface{}, len(grid.Weekdays))
	for i, d := range grid.Weekdays {
		header[i] = styleLabel.Sprint(d)
	}
	tbl.AddRow(header...)

	for _, week := range grid.Weeks {
		if emptyWeek(week) {
			continue
		}
		row := make([]interface{}, len(week))
		for i, cell := range week {
			row[i] = gridCell(cell)
		}
		tbl.AddRow(row...)
	}
	fmt.Fprintln(w, tbl)

	legend := uitable.New()
	legend.Separator = "  "
	for _, week := range grid.Weeks {
		for _, cell := range week {
			if cell.IsEmpty || cell.FeastLabel == nil {
				continue
			}
			legend.AddRow(strconv.Itoa(cell.Source.Day), cell.CivilLabel, styled(classStyle(cell.FeastClass), *cell.FeastLabel))
		}
	}
	if len(legend.Rows) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, legend)
	}
	if grid.Unplaced > 0 {
		fmt.Fprintf(w, "(%d days did not fit the grid)\n", grid.Unplaced)
	}
}

func gridCell(cell calendar.GridCell) string {
	if cell.IsEmpty {
		return ""
	}

	text := fmt.Sprintf("%2d", cell.Source.Day)
	if cell.IsSelected {
		text = "[" + text + "]"
	} else {
		text = " " + text + " "
	}

	style := classStyle(cell.FeastClass)
	if style == nil && cell.IsRestDay {
		style = styleRest
	}
	text = styled(style, text)
	if cell.IsToday {
		text = styleToday.Sprint(text)
	}
	return text
}

func emptyWeek(week [calendar.GridColumns]calendar.GridCell) bool {
	for _, cell := range week {
		if !cell.IsEmpty {
			return false
		}
	}
	return true
}

// printSummary writes the heading lines and one row per observance.
func printSummary(w io.Writer, s *calendar.DaySummary) {
	fmt.Fprintln(w, styleTitle.Sprint(s.SourceLabel))
	fmt.Fprintln(w, s.CivilLabel)

	tbl := uitable.New()
	tbl.Separator = "  "
	for _, e := range s.Entries {
		tbl.AddRow(styleLabel.Sprint(e.Label), e.Text)
	}
	fmt.Fprintln(w, tbl)
}

// printFeasts writes a catalog listing.
func printFeasts(w io.Writer, feasts []calendar.CatalogEntry) {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(styleLabel.Sprint("CATEGORY"), styleLabel.Sprint("MONTH"), styleLabel.Sprint("DAY"), styleLabel.Sprint("NAME"))
	for _, f := range feasts {
		month := f.MonthName
		if f.MonthIndex == nil {
			month = "*"
		}
		tbl.AddRow(string(f.Category), month, f.Day, f.Name)
	}
	fmt.Fprintln(w, tbl)
}

func styled(style *color.Color, s string) string {
	if style == nil {
		return s
	}
	return style.Sprint(s)
}
