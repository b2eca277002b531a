// Package calendar converts between the Ethiopian calendar year 2018 EC and
// the Gregorian calendar, and resolves the church feasts that fall on a day.
//
// Only one Ethiopian year is modeled. The epoch (Meskerem 1, 2018 EC) is
// pinned to 2025-09-11 and every conversion is an integer day offset from it.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Calendar constants for the modeled year.
const (
	// Year is the Ethiopian year covered by the tables.
	Year = 2018

	// MonthCount is the number of months, including the short Pagume.
	MonthCount = 13

	// DaysInYear is the total day count of 2018 EC (not a leap year).
	DaysInYear = 365

	// EpochWeekday is the weekday of Meskerem 1, 2018 EC (Thursday).
	EpochWeekday = 4
)

// Epoch is the Gregorian date of Meskerem 1, 2018 EC.
var Epoch = time.Date(2025, time.September, 11, 0, 0, 0, 0, time.UTC)

// monthNames holds the Ethiopian month names in order. Feast keys and
// imported data resolve against this spelling.
var monthNames = [MonthCount]string{
	"መስከረም", "ጥቅምት", "ኅዳር", "ታኅሣሥ", "ጥር", "የካቲት",
	"መጋቢት", "ሚያዝያ", "ግንቦት", "ሰኔ", "ሐምሌ", "ነሐሴ", "ጳጉሜ",
}

// monthDays holds the day count of each month. Pagume has 5 days in 2018 EC.
var monthDays = [MonthCount]int{30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 5}

// Weekday names, Sunday first. The Ethiopian week lines up with the
// Gregorian one, so index 0 is Sunday (እሑድ) in both tables.
var (
	amharicWeekdays = [7]string{"እሑድ", "ሰኞ", "ማክሰኞ", "ረቡዕ", "ሐሙስ", "አርብ", "ቅዳሜ"}
	englishWeekdays = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
)

var (
	englishMonthsShort = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	englishMonthsLong  = [12]string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"}
)

// MonthName returns the Ethiopian name of a month, or "" if the index is
// out of range.
func MonthName(monthIndex int) string {
	if !ValidMonth(monthIndex) {
		return ""
	}
	return monthNames[monthIndex]
}

// MonthNames returns a copy of the month-name table.
func MonthNames() []string {
	names := make([]string, MonthCount)
	copy(names, monthNames[:])
	return names
}

// MonthIndex looks up a month by its Ethiopian name.
// Returns ErrUnknownMonth if the spelling does not match the table.
func MonthIndex(name string) (int, error) {
	for i, n := range monthNames {
		if n == name {
			return i, nil
		}
	}
	return 0, ErrUnknownMonth
}

// ParseMonth accepts a month index ("0" to "12") or an Amharic month name.
func ParseMonth(s string) (int, error) {
	s = strings.TrimSpace(s)
	if m, err := strconv.Atoi(s); err == nil {
		if !ValidMonth(m) {
			return 0, fmt.Errorf("%w: index %d not in 0-%d", ErrInvalidMonth, m, MonthCount-1)
		}
		return m, nil
	}
	m, err := MonthIndex(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q; use 0-%d or one of %s", err, s, MonthCount-1, strings.Join(MonthNames(), " "))
	}
	return m, nil
}

// DaysInMonth returns the day count of a month, or 0 for an invalid index.
func DaysInMonth(monthIndex int) int {
	if !ValidMonth(monthIndex) {
		return 0
	}
	return monthDays[monthIndex]
}

// ValidMonth reports whether monthIndex names one of the 13 months.
func ValidMonth(monthIndex int) bool {
	return monthIndex >= 0 && monthIndex < MonthCount
}

// ValidDate reports whether day exists in the given month.
func ValidDate(monthIndex, day int) bool {
	return ValidMonth(monthIndex) && day >= 1 && day <= monthDays[monthIndex]
}

// AmharicWeekdays returns the weekday header row, Sunday first.
func AmharicWeekdays() []string {
	return append([]string(nil), amharicWeekdays[:]...)
}

// MonthOption is one entry of the month selector.
type MonthOption struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Label string `json:"label"` // "<name> 2018"
	Days  int    `json:"days"`
}

// MonthOptions lists every month for a month selector.
func MonthOptions() []MonthOption {
	opts := make([]MonthOption, 0, MonthCount)
	for i, name := range monthNames {
		opts = append(opts, MonthOption{
			Index: i,
			Name:  name,
			Label: monthTitle(i),
			Days:  monthDays[i],
		})
	}
	return opts
}
