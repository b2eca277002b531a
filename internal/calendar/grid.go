package calendar

import "time"

// Grid dimensions. Six rows are always allocated; rows without days are
// trailing padding.
const (
	GridRows    = 6
	GridColumns = 7
	GridCells   = GridRows * GridColumns
)

// GridCell is one day slot of a month grid. Empty padding cells carry only
// IsEmpty and the column flags' zero values.
type GridCell struct {
	Source     *SourceDate `json:"source"`
	Civil      *time.Time  `json:"civil"`
	CivilLabel string      `json:"civil_label,omitempty"` // "Sep 11"
	IsEmpty    bool        `json:"is_empty"`
	FeastClass FeastClass  `json:"feast_class"`
	FeastLabel *string     `json:"feast_label"`
	IsToday    bool        `json:"is_today"`
	IsSelected bool        `json:"is_selected"`
	IsRestDay  bool        `json:"is_rest_day"` // first column
	IsWeekend  bool        `json:"is_weekend"`  // first and last column
}

// MonthGrid is a month laid out as weeks of seven days.
type MonthGrid struct {
	MonthIndex int                             `json:"month_index"`
	MonthName  string                          `json:"month_name"`
	Title      string                          `json:"title"`
	Weekdays   []string                        `json:"weekdays"`
	DayCount   int                             `json:"day_count"`
	StartsOn   int                             `json:"starts_on"` // column of day 1
	Weeks      [GridRows][GridColumns]GridCell `json:"weeks"`
	Selection  Selection                       `json:"selection"`
	Unplaced   int                             `json:"unplaced,omitempty"`
}

// BuildMonthGrid lays out a month with feast, today and selection flags.
//
// A selected day past the end of the rendered month is cleared, whichever
// month the selection names, as is a selection that is not a real day. A
// selection in another month that fits is kept but marks no cell.
func (e *Engine) BuildMonthGrid(monthIndex int, sel Selection) (*MonthGrid, error) {
	if !ValidMonth(monthIndex) {
		return nil, ErrInvalidMonth
	}

	dayCount := monthDays[monthIndex]
	if sel.IsSet() && (sel.Day() > dayCount || !ValidDate(sel.Month(), sel.Day())) {
		sel = Selection{}
	}

	grid := &MonthGrid{
		MonthIndex: monthIndex,
		MonthName:  monthNames[monthIndex],
		Title:      monthTitle(monthIndex),
		Weekdays:   AmharicWeekdays(),
		DayCount:   dayCount,
		StartsOn:   WeekdayOfMonthStart(monthIndex),
		Selection:  sel,
	}

	today := e.today()
	slots, unplaced := layoutMonth(grid.StartsOn, dayCount)
	grid.Unplaced = unplaced

	for i, day := range slots {
		row, col := i/GridColumns, i%GridColumns
		if day == 0 {
			grid.Weeks[row][col] = GridCell{IsEmpty: true, FeastClass: FeastClassNone}
			continue
		}
		grid.Weeks[row][col] = e.dayCell(monthIndex, day, col, today, sel)
	}

	return grid, nil
}

func (e *Engine) dayCell(monthIndex, day, col int, today *SourceDate, sel Selection) GridCell {
	src := newSourceDate(monthIndex, day)
	civil := SourceToCivil(monthIndex, day)
	res := e.catalog.Resolve(monthIndex, day)

	return GridCell{
		Source:     &src,
		Civil:      &civil,
		CivilLabel: FormatCivilShort(civil),
		FeastClass: res.Class,
		FeastLabel: res.Primary,
		IsToday:    today != nil && *today == src,
		IsSelected: sel.Matches(monthIndex, day),
		IsRestDay:  col == 0,
		IsWeekend:  col == 0 || col == GridColumns-1,
	}
}

// layoutMonth places days 1..dayCount into a fixed 42-slot grid starting at
// column startWeekday. A zero slot is padding. Days that do not fit are not
// placed; their count is returned as unplaced.
func layoutMonth(startWeekday, dayCount int) (slots [GridCells]int, unplaced int) {
	if startWeekday < 0 || startWeekday >= GridColumns {
		startWeekday = 0
	}
	for day := 1; day <= dayCount; day++ {
		i := startWeekday + day - 1
		if i >= GridCells {
			return slots, dayCount - day + 1
		}
		slots[i] = day
	}
	return slots, 0
}
