package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/zapponejosh/feast-calendar-api/internal/calendar"
)

// This script prints every day of the modeled year with its feast, to
// check the tables against a printed church calendar.

// yearDay is one generated row.
type yearDay struct {
	civil  string
	source calendar.SourceDate
	label  string
	class  calendar.FeastClass
}

func main() {
	feastsOnly := flag.Bool("feasts", false, "Only list days with a feast")
	flag.Parse()

	days := generate(calendar.NewEngine(nil), *feastsOnly)
	printCounts(os.Stdout, days)

	fmt.Println("=== All Dates ===")
	if err := writeCSV(os.Stdout, days); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func generate(engine *calendar.Engine, feastsOnly bool) []yearDay {
	var days []yearDay
	for m := 0; m < calendar.MonthCount; m++ {
		for d := 1; d <= calendar.DaysInMonth(m); d++ {
			res := engine.Resolve(m, d)
			if feastsOnly && !res.HasFeast() {
				continue
			}

			day := yearDay{
				civil: calendar.FormatDate(calendar.SourceToCivil(m, d)),
				class: res.Class,
			}
			day.source, _ = calendar.CivilToSource(calendar.SourceToCivil(m, d))
			if res.Primary != nil {
				day.label = *res.Primary
			} else if len(res.All) > 0 {
				day.label = res.All[0].Name
			}
			days = append(days, day)
		}
	}
	return days
}

func printCounts(w io.Writer, days []yearDay) {
	fmt.Fprintf(w, "=== %d EC (%s to %s) ===\n\n", calendar.Year,
		calendar.FormatDate(calendar.Epoch),
		calendar.FormatDate(calendar.Epoch.AddDate(0, 0, calendar.DaysInYear-1)))

	counts := make(map[calendar.FeastClass]int)
	for _, d := range days {
		counts[d.class]++
	}

	fmt.Fprintln(w, "Days by feast class:")
	for _, c := range []calendar.FeastClass{
		calendar.FeastClassMajor,
		calendar.FeastClassYearly,
		calendar.FeastClassMonthly,
		calendar.FeastClassNone,
	} {
		fmt.Fprintf(w, "  %-10s %d days\n", string(c)+":", counts[c])
	}
	fmt.Fprintf(w, "  %-10s %d days\n", "total:", len(days))
	fmt.Fprintln(w)
}

func writeCSV(w io.Writer, days []yearDay) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Month", "Day", "Month Name", "Class", "Feast"}); err != nil {
		return err
	}
	for _, d := range days {
		if err := cw.Write([]string{
			d.civil,
			strconv.Itoa(d.source.MonthIndex),
			strconv.Itoa(d.source.Day),
			d.source.MonthName,
			string(d.class),
			d.label,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
