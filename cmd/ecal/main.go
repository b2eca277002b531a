// Command ecal prints Ethiopian calendar dates and feast days for 2018 EC.
//
// Usage:
//
//	ecal today
//	ecal convert 2026-01-07
//	ecal civil ጥር 11
//	ecal month 0 --day 17
//	ecal day 4 13
//	ecal feasts --category major
//	ecal ics -o feasts.ics
//
// Pass --db to read feasts from a database filled by cmd/import.
package main

import (
	"os"

	"github.com/zapponejosh/feast-calendar-api/internal/cli"
)

func main() {
	if err := cli.New().Execute(); err != nil {
		os.Exit(1)
	}
}
