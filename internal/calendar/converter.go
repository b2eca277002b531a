package calendar

import (
	"errors"
	"strconv"
	"time"
)

var (
	// ErrNotInRange is returned when a Gregorian date falls outside 2018 EC.
	ErrNotInRange = errors.New("date outside the supported Ethiopian year")

	// ErrInvalidMonth is returned for a month index outside 0..12.
	ErrInvalidMonth = errors.New("invalid month index")

	// ErrInvalidDate is returned for a day that does not exist in its month.
	ErrInvalidDate = errors.New("invalid day for month")

	// ErrUnknownMonth is returned when a month name does not match the table.
	ErrUnknownMonth = errors.New("unknown month name")
)

// SourceDate is a day of the Ethiopian year 2018 EC.
// Values are built by the converter or the grid builder and never mutated.
type SourceDate struct {
	Year       int    `json:"year"`
	MonthIndex int    `json:"month_index"`
	MonthName  string `json:"month_name"`
	Day        int    `json:"day"`
}

func newSourceDate(monthIndex, day int) SourceDate {
	return SourceDate{
		Year:       Year,
		MonthIndex: monthIndex,
		MonthName:  monthNames[monthIndex],
		Day:        day,
	}
}

// String formats the date as "<month> <day>, 2018".
func (d SourceDate) String() string {
	return d.MonthName + " " + strconv.Itoa(d.Day) + ", " + strconv.Itoa(d.Year)
}

// CivilToSource converts a Gregorian date to 2018 EC.
//
// Only the calendar date of t (in t's location) is used; time of day is
// ignored. Returns ErrNotInRange if the date is before the epoch or 365 or
// more days after it.
func CivilToSource(t time.Time) (SourceDate, error) {
	offset := daysSinceEpoch(t)
	if offset < 0 || offset >= DaysInYear {
		return SourceDate{}, ErrNotInRange
	}

	monthIndex := 0
	for offset >= monthDays[monthIndex] {
		offset -= monthDays[monthIndex]
		monthIndex++
	}

	return newSourceDate(monthIndex, offset+1), nil
}

// SourceToCivil returns the Gregorian date (00:00 UTC) of an Ethiopian day.
//
// The arguments are not validated; callers check them with ValidDate first.
func SourceToCivil(monthIndex, day int) time.Time {
	offset := monthOffset(monthIndex) + day - 1
	return Epoch.AddDate(0, 0, offset)
}

// WeekdayOfMonthStart returns the weekday (0 = Sunday) of day 1 of a month.
func WeekdayOfMonthStart(monthIndex int) int {
	return (EpochWeekday + monthOffset(monthIndex)%7) % 7
}

// monthOffset sums the day counts of every month before monthIndex.
func monthOffset(monthIndex int) int {
	offset := 0
	for i := 0; i < monthIndex && i < MonthCount; i++ {
		offset += monthDays[i]
	}
	return offset
}

// daysSinceEpoch counts whole days from the epoch to the calendar date of t.
func daysSinceEpoch(t time.Time) int {
	y, m, d := t.Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(date.Sub(Epoch) / (24 * time.Hour))
}

// civilDate truncates t to its calendar date at 00:00 UTC.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
