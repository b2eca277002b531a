// Package cli implements the ecal command line tool.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/feast-calendar-api/internal/calendar"
	"github.com/zapponejosh/feast-calendar-api/internal/config"
	"github.com/zapponejosh/feast-calendar-api/internal/database"
)

// Options are the global flags shared by every subcommand.
type Options struct {
	DBPath   string
	JSON     bool
	Timezone string

	// Now replaces time.Now; tests pin it.
	Now func() time.Time
}

// New returns the root ecal command.
func New() *cobra.Command {
	return NewWithOptions(&Options{Now: time.Now})
}

// NewWithOptions returns the root command bound to opts.
func NewWithOptions(opts *Options) *cobra.Command {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	cmd := &cobra.Command{
		Use:   "ecal",
		Short: fmt.Sprintf("Ethiopian calendar and feast days for %d EC.", calendar.Year),
		Long: `ecal converts between the Gregorian calendar and the Ethiopian year
2018 EC (2025-09-11 to 2026-09-10) and shows the feasts of each day.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "",
		"Load feasts from this SQLite database instead of the built-in tables.")
	cmd.PersistentFlags().BoolVar(&opts.JSON, "json", false,
		"Output as JSON.")
	cmd.PersistentFlags().StringVar(&opts.Timezone, "tz", config.DefaultTimezone,
		"Time zone in which today is decided.")

	addToday(cmd, opts)
	addConvert(cmd, opts)
	addCivil(cmd, opts)
	addMonth(cmd, opts)
	addDay(cmd, opts)
	addFeasts(cmd, opts)
	addICS(cmd, opts)

	return cmd
}

// engine builds the calendar engine from the flags.
func (o *Options) engine(ctx context.Context) (*calendar.Engine, error) {
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return nil, fmt.Errorf("--tz %q: %w", o.Timezone, err)
	}

	var catalog *calendar.Catalog
	if o.DBPath != "" {
		quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
		db, err := database.Open(database.DefaultConfig(o.DBPath), quiet)
		if err != nil {
			return nil, err
		}
		defer db.Close()

		if _, err := db.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		if catalog, err = calendar.LoadCatalog(ctx, db); err != nil {
			return nil, err
		}
	}

	return calendar.NewEngine(catalog, calendar.WithClock(o.Now), calendar.WithLocation(loc)), nil
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
