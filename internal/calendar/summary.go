package calendar

import (
	"fmt"
	"strconv"
	"time"

	"github.com/zapponejosh/feast-calendar-api/internal/database"
)

// Placeholder is the summary text shown when no feast falls on a day.
const Placeholder = "—"

// Amharic headings of the summary entries.
var categoryLabels = map[database.FeastCategory]string{
	database.FeastCategoryMajor:   "ታላቅ በዓል",
	database.FeastCategoryYearly:  "ዓመታዊ በዓል",
	database.FeastCategoryMonthly: "ወርሃዊ በዓል",
	database.FeastCategorySaint:   "የቀኑ ቅዱሳን",
}

// CategoryLabel returns the Amharic heading of a feast category.
func CategoryLabel(c database.FeastCategory) string {
	return categoryLabels[c]
}

// SummaryEntry is one line of a day summary. The placeholder line has an
// empty Category and Label.
type SummaryEntry struct {
	Category database.FeastCategory `json:"category,omitempty"`
	Label    string                 `json:"label,omitempty"`
	Text     string                 `json:"text"`
}

// DaySummary describes one day in both calendars with all of its feasts.
type DaySummary struct {
	Source      SourceDate     `json:"source"`
	Civil       time.Time      `json:"civil"`
	CivilLabel  string         `json:"civil_label"`  // "Thursday, September 11, 2025"
	SourceLabel string         `json:"source_label"` // "ሐሙስ, መስከረም 1, 2018"
	IsToday     bool           `json:"is_today"`
	Entries     []SummaryEntry `json:"entries"`
}

// BuildDaySummary returns the detail view of one day.
func (e *Engine) BuildDaySummary(monthIndex, day int) (*DaySummary, error) {
	if !ValidMonth(monthIndex) {
		return nil, ErrInvalidMonth
	}
	if !ValidDate(monthIndex, day) {
		return nil, fmt.Errorf("%w: %s has %d days, got %d", ErrInvalidDate, monthNames[monthIndex], monthDays[monthIndex], day)
	}

	src := newSourceDate(monthIndex, day)
	civil := SourceToCivil(monthIndex, day)
	today := e.today()

	summary := &DaySummary{
		Source:      src,
		Civil:       civil,
		CivilLabel:  FormatCivilLong(civil),
		SourceLabel: FormatSourceLong(src, civil.Weekday()),
		IsToday:     today != nil && *today == src,
	}

	for _, o := range e.catalog.Resolve(monthIndex, day).All {
		summary.Entries = append(summary.Entries, SummaryEntry{
			Category: o.Category,
			Label:    CategoryLabel(o.Category),
			Text:     o.Name,
		})
	}
	if len(summary.Entries) == 0 {
		summary.Entries = []SummaryEntry{{Text: Placeholder}}
	}

	return summary, nil
}

// FormatCivilShort formats a Gregorian date as "Sep 11".
func FormatCivilShort(t time.Time) string {
	return fmt.Sprintf("%s %02d", englishMonthsShort[t.Month()-1], t.Day())
}

// FormatCivilLong formats a Gregorian date as "Thursday, September 11, 2025".
func FormatCivilLong(t time.Time) string {
	return fmt.Sprintf("%s, %s %d, %d", englishWeekdays[t.Weekday()], englishMonthsLong[t.Month()-1], t.Day(), t.Year())
}

// FormatSourceLong formats an Ethiopian date as "ሐሙስ, መስከረም 1, 2018".
func FormatSourceLong(d SourceDate, weekday time.Weekday) string {
	return amharicWeekdays[weekday] + ", " + d.MonthName + " " + strconv.Itoa(d.Day) + ", " + strconv.Itoa(d.Year)
}

// ParseDateString parses a date string in YYYY-MM-DD format.
func ParseDateString(dateStr string) (time.Time, error) {
	return time.Parse("2006-01-02", dateStr)
}

// FormatDate formats a date as YYYY-MM-DD.
func FormatDate(date time.Time) string {
	return date.Format("2006-01-02")
}

func monthTitle(monthIndex int) string {
	return monthNames[monthIndex] + " " + strconv.Itoa(Year)
}
