// Package export renders the feast calendar in interchange formats.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/zapponejosh/feast-calendar-api/internal/calendar"
	"github.com/zapponejosh/feast-calendar-api/internal/database"
)

// ProductID identifies this service in exported calendars.
const ProductID = "-//feast-calendar-api//Ethiopian Feast Calendar 2018 EC//AM"

// ICSOptions selects what goes into an iCalendar export.
type ICSOptions struct {
	// Category limits the export to days with an observance of that
	// category. Empty means every day with any observance.
	Category database.FeastCategory

	// Stamp is written as DTSTAMP on every event.
	Stamp time.Time
}

// BuildICS returns one all-day event per feast day of 2018 EC.
//
// The event summary is the day's grid label, or the first observance when
// only saints fall on it. Every observance is listed in the description.
func BuildICS(engine *calendar.Engine, opts ICSOptions) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetXWRCalName(fmt.Sprintf("Ethiopian feasts %d EC", calendar.Year))
	cal.SetXWRTimezone(engine.Location().String())

	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = calendar.Epoch
	}

	for m := 0; m < calendar.MonthCount; m++ {
		for d := 1; d <= calendar.DaysInMonth(m); d++ {
			res := engine.Resolve(m, d)
			if !res.HasFeast() || !includes(res, opts.Category) {
				continue
			}
			addDay(cal, m, d, res, stamp)
		}
	}

	return cal
}

// WriteICS serializes the export to w.
func WriteICS(w io.Writer, engine *calendar.Engine, opts ICSOptions) error {
	_, err := io.WriteString(w, BuildICS(engine, opts).Serialize())
	return err
}

// EventUID is the stable UID of a day's event.
func EventUID(monthIndex, day int) string {
	return fmt.Sprintf("%d-%02d-%02d@feast-calendar-api", calendar.Year, monthIndex+1, day)
}

func addDay(cal *ics.Calendar, monthIndex, day int, res calendar.Resolution, stamp time.Time) {
	civil := calendar.SourceToCivil(monthIndex, day)

	event := cal.AddEvent(EventUID(monthIndex, day))
	event.SetDtStampTime(stamp)
	event.SetAllDayStartAt(civil)
	event.SetAllDayEndAt(civil.AddDate(0, 0, 1))

	summary := res.All[0].Name
	if res.Primary != nil {
		summary = *res.Primary
	}
	event.SetSummary(summary)

	lines := make([]string, 0, len(res.All)+1)
	lines = append(lines, fmt.Sprintf("%s %d, %d", calendar.MonthName(monthIndex), day, calendar.Year))
	for _, o := range res.All {
		lines = append(lines, calendar.CategoryLabel(o.Category)+": "+o.Name)
	}
	event.SetDescription(strings.Join(lines, "\n"))

	if res.Class != calendar.FeastClassNone {
		event.AddProperty(ics.ComponentPropertyCategories, string(res.Class))
	}
}

func includes(res calendar.Resolution, category database.FeastCategory) bool {
	if category == "" {
		return true
	}
	for _, o := range res.All {
		if o.Category == category {
			return true
		}
	}
	return false
}
