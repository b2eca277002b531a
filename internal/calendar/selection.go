package calendar

import "encoding/json"

// Selection is the chosen month and day of a calendar view.
//
// The zero value is unselected; it only exists before InitSelection. Values
// are passed into and returned from transitions, never shared.
type Selection struct {
	month int
	day   int
	set   bool
}

// InitSelection selects today, or Meskerem 1 when today is nil (outside
// the modeled year).
func InitSelection(today *SourceDate) Selection {
	if today == nil {
		return Selection{month: 0, day: 1, set: true}
	}
	return Selection{month: today.MonthIndex, day: today.Day, set: true}
}

// Selected returns a selection of the given day.
func Selected(monthIndex, day int) Selection {
	return Selection{month: monthIndex, day: day, set: true}
}

// IsSet reports whether a day is selected.
func (s Selection) IsSet() bool { return s.set }

// Month returns the selected month index, or -1 when unselected.
func (s Selection) Month() int {
	if !s.set {
		return -1
	}
	return s.month
}

// Day returns the selected day, or 0 when unselected.
func (s Selection) Day() int {
	if !s.set {
		return 0
	}
	return s.day
}

// Matches reports whether the selection points at the given day.
func (s Selection) Matches(monthIndex, day int) bool {
	return s.set && s.month == monthIndex && s.day == day
}

// PickDay selects a day. It always succeeds; callers validate user input.
func (s Selection) PickDay(monthIndex, day int) Selection {
	return Selected(monthIndex, day)
}

// SwitchMonth moves to another month. The current day is kept if it exists
// there; otherwise the day becomes today's day when today is in that month,
// else day 1. A day that is invalid for the new month never survives.
func (s Selection) SwitchMonth(monthIndex int, today *SourceDate) Selection {
	if s.set && ValidDate(monthIndex, s.day) {
		return Selected(monthIndex, s.day)
	}
	return Selected(monthIndex, defaultDayForMonth(monthIndex, today))
}

func defaultDayForMonth(monthIndex int, today *SourceDate) int {
	day := 1
	if today != nil && today.MonthIndex == monthIndex {
		day = today.Day
	}
	if n := DaysInMonth(monthIndex); n > 0 && day > n {
		day = n
	}
	return day
}

// MarshalJSON encodes the selection as {"month_index":..,"day":..} or null.
func (s Selection) MarshalJSON() ([]byte, error) {
	if !s.set {
		return []byte("null"), nil
	}
	return json.Marshal(struct {
		MonthIndex int    `json:"month_index"`
		MonthName  string `json:"month_name"`
		Day        int    `json:"day"`
	}{s.month, MonthName(s.month), s.day})
}
