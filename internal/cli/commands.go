package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/feast-calendar-api/internal/calendar"
	"github.com/zapponejosh/feast-calendar-api/internal/database"
	"github.com/zapponejosh/feast-calendar-api/internal/export"
)

func addToday(topLevel *cobra.Command, opts *Options) {
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show today in both calendars with its feasts.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.engine(cmd.Context())
			if err != nil {
				return err
			}

			today, err := engine.Today()
			if errors.Is(err, calendar.ErrNotInRange) {
				return fmt.Errorf("%s is outside %d EC", calendar.FormatDate(engine.TodayCivil()), calendar.Year)
			}
			if err != nil {
				return err
			}

			summary, err := engine.BuildDaySummary(today.MonthIndex, today.Day)
			if err != nil {
				return err
			}
			if opts.JSON {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			printSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}

func addConvert(topLevel *cobra.Command, opts *Options) {
	cmd := &cobra.Command{
		Use:   "convert YYYY-MM-DD",
		Short: "Convert a Gregorian date to 2018 EC.",
		Example: `
ecal convert 2026-01-07
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			civil, err := calendar.ParseDateString(args[0])
			if err != nil {
				return fmt.Errorf("invalid date %q, use YYYY-MM-DD", args[0])
			}
			src, err := calendar.CivilToSource(civil)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return printConversion(cmd, opts, src, civil)
		},
	}

	topLevel.AddCommand(cmd)
}

func addCivil(topLevel *cobra.Command, opts *Options) {
	cmd := &cobra.Command{
		Use:   "civil MONTH DAY",
		Short: "Convert a 2018 EC date to the Gregorian calendar.",
		Long:  "MONTH is an index from 0 (መስከረም) to 12 (ጳጉሜ) or an Amharic month name.",
		Example: `
ecal civil 4 11
ecal civil ጥር 11
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, day, err := parseMonthDay(args[0], args[1])
			if err != nil {
				return err
			}
			civil := calendar.SourceToCivil(month, day)
			src, err := calendar.CivilToSource(civil)
			if err != nil {
				return err
			}
			return printConversion(cmd, opts, src, civil)
		},
	}

	topLevel.AddCommand(cmd)
}

func addMonth(topLevel *cobra.Command, opts *Options) {
	var day int

	cmd := &cobra.Command{
		Use:   "month [MONTH]",
		Short: "Print a month grid with its feasts.",
		Long: `Print a month grid. Without MONTH the current month is shown, or
መስከረም when today is outside 2018 EC. The selected day is bracketed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.engine(cmd.Context())
			if err != nil {
				return err
			}

			month := engine.DefaultMonth()
			if len(args) == 1 {
				if month, err = calendar.ParseMonth(args[0]); err != nil {
					return err
				}
			}

			sel := engine.SwitchMonth(engine.NewSelection(), month)
			if cmd.Flags().Changed("day") {
				if !calendar.ValidDate(month, day) {
					return fmt.Errorf("%w: %s has %d days", calendar.ErrInvalidDate, calendar.MonthName(month), calendar.DaysInMonth(month))
				}
				sel = sel.PickDay(month, day)
			}

			grid, err := engine.BuildMonthGrid(month, sel)
			if err != nil {
				return err
			}
			if opts.JSON {
				return writeJSON(cmd.OutOrStdout(), grid)
			}
			printGrid(cmd.OutOrStdout(), grid)
			return nil
		},
	}
	cmd.Flags().IntVar(&day, "day", 0, "Select this day of the month.")

	topLevel.AddCommand(cmd)
}

func addDay(topLevel *cobra.Command, opts *Options) {
	cmd := &cobra.Command{
		Use:   "day MONTH DAY",
		Short: "Show one day of 2018 EC with all of its feasts.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, day, err := parseMonthDay(args[0], args[1])
			if err != nil {
				return err
			}
			engine, err := opts.engine(cmd.Context())
			if err != nil {
				return err
			}
			summary, err := engine.BuildDaySummary(month, day)
			if err != nil {
				return err
			}
			if opts.JSON {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			printSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}

func addFeasts(topLevel *cobra.Command, opts *Options) {
	var category string

	cmd := &cobra.Command{
		Use:   "feasts",
		Short: "List the feast tables.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := parseCategory(category)
			if err != nil {
				return err
			}
			engine, err := opts.engine(cmd.Context())
			if err != nil {
				return err
			}
			feasts := engine.Catalog().Feasts(c)
			if opts.JSON {
				return writeJSON(cmd.OutOrStdout(), feasts)
			}
			printFeasts(cmd.OutOrStdout(), feasts)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Only list one table: major, yearly, monthly or saint.")

	topLevel.AddCommand(cmd)
}

func addICS(topLevel *cobra.Command, opts *Options) {
	var (
		category string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "ics",
		Short: "Export the feast days as an iCalendar file.",
		Example: `
ecal ics --category major -o feasts.ics
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := parseCategory(category)
			if err != nil {
				return err
			}
			engine, err := opts.engine(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			return export.WriteICS(w, engine, export.ICSOptions{Category: c, Stamp: opts.Now().UTC()})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Only export days with a feast of this category.")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "File to write, - for stdout.")

	topLevel.AddCommand(cmd)
}

func printConversion(cmd *cobra.Command, opts *Options, src calendar.SourceDate, civil time.Time) error {
	if opts.JSON {
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"civil":        calendar.FormatDate(civil),
			"civil_label":  calendar.FormatCivilLong(civil),
			"source":       src,
			"source_label": calendar.FormatSourceLong(src, civil.Weekday()),
		})
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n",
		calendar.FormatSourceLong(src, civil.Weekday()),
		calendar.FormatCivilLong(civil))
	return err
}

func parseMonthDay(monthArg, dayArg string) (int, int, error) {
	month, err := calendar.ParseMonth(monthArg)
	if err != nil {
		return 0, 0, err
	}
	day, err := strconv.Atoi(dayArg)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid day %q", dayArg)
	}
	if !calendar.ValidDate(month, day) {
		return 0, 0, fmt.Errorf("%w: %s has %d days, got %d", calendar.ErrInvalidDate,
			calendar.MonthName(month), calendar.DaysInMonth(month), day)
	}
	return month, day, nil
}

func parseCategory(s string) (database.FeastCategory, error) {
	c := database.FeastCategory(s)
	if c != "" && !c.IsValid() {
		return "", fmt.Errorf("unknown category %q, use one of %v", s, database.ValidFeastCategories())
	}
	return c, nil
}
