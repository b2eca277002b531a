// Command coverage walks every day of 2018 EC against a running API and
// checks that both conversions agree, that every day resolves, and that the
// days just outside the year are rejected.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/zapponejosh/feast-calendar-api/internal/calendar"
)

// APIResponse matches the API response envelope.
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type conversion struct {
	Civil  string              `json:"civil"`
	Source calendar.SourceDate `json:"source"`
}

type daySummary struct {
	Entries []calendar.SummaryEntry `json:"entries"`
}

// TestResult holds the result for a single civil date.
type TestResult struct {
	Date    string              `json:"date"`
	Success bool                `json:"success"`
	Source  calendar.SourceDate `json:"source"`
	Feasts  int                 `json:"feasts"`
	Error   string              `json:"error,omitempty"`
}

// MonthStats tracks results per Ethiopian month.
type MonthStats struct {
	MonthName   string   `json:"month_name"`
	TotalDays   int      `json:"total_days"`
	SuccessDays int      `json:"success_days"`
	FeastDays   int      `json:"feast_days"`
	FailedDates []string `json:"failed_dates,omitempty"`
}

// Analysis holds the analyzed results.
type Analysis struct {
	TotalDays    int                              `json:"total_days"`
	TotalSuccess int                              `json:"total_success"`
	TotalFailed  int                              `json:"total_failed"`
	FeastDays    int                              `json:"feast_days"`
	ByMonth      [calendar.MonthCount]*MonthStats `json:"by_month"`
	Boundaries   []TestResult                     `json:"boundaries"`
	AllFailures  []TestResult                     `json:"failures"`
}

type checker struct {
	client  *http.Client
	baseURL string
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the API")
	verbose := flag.Bool("v", false, "Verbose output (show each date)")
	outputFile := flag.String("o", "", "Output results to JSON file")
	flag.Parse()

	fmt.Println("================================================================")
	fmt.Printf("Feast Calendar API - %d EC Coverage Test\n", calendar.Year)
	fmt.Println("================================================================")
	fmt.Printf("Base URL:    %s\n", *baseURL)
	fmt.Printf("Date Range:  %s to %s\n",
		calendar.FormatDate(calendar.Epoch),
		calendar.FormatDate(calendar.Epoch.AddDate(0, 0, calendar.DaysInYear-1)))
	fmt.Println()

	c := &checker{client: &http.Client{Timeout: 5 * time.Second}, baseURL: *baseURL}
	if _, err := c.client.Get(c.baseURL + "/health"); err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", *baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}

	results := c.testYear(os.Stdout, *verbose)
	analysis := analyzeResults(results, c.testBoundaries())

	printSummary(os.Stdout, analysis)

	if *outputFile != "" {
		if err := saveResults(*outputFile, analysis); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}

	if analysis.TotalFailed > 0 {
		os.Exit(1)
	}
}

func (c *checker) testYear(w io.Writer, verbose bool) []TestResult {
	fmt.Fprintf(w, "Testing %d days...\n\n", calendar.DaysInYear)

	var results []TestResult
	failed := 0
	lastProgress := -1

	for i := 0; i < calendar.DaysInYear; i++ {
		civil := calendar.Epoch.AddDate(0, 0, i)
		result := c.testDate(civil)
		results = append(results, result)
		if !result.Success {
			failed++
		}

		progress := ((i + 1) * 100) / calendar.DaysInYear
		if progress != lastProgress && progress%10 == 0 {
			fmt.Fprintf(w, "  Progress: %d%% (%d/%d) - Failures: %d\n", progress, i+1, calendar.DaysInYear, failed)
			lastProgress = progress
		}

		if verbose {
			status := "✓"
			if !result.Success {
				status = "✗"
			}
			fmt.Fprintf(w, "  %s %s: %s [%d feasts]\n", status, result.Date, result.Source, result.Feasts)
			if !result.Success {
				fmt.Fprintf(w, "      Error: %s\n", result.Error)
			}
		}
	}

	fmt.Fprintln(w)
	return results
}

// testDate converts a civil date, converts the answer back, and loads the
// day summary.
func (c *checker) testDate(civil time.Time) TestResult {
	result := TestResult{Date: calendar.FormatDate(civil)}

	var conv conversion
	if err := c.get("/api/v1/convert/civil/"+result.Date, &conv); err != nil {
		result.Error = err.Error()
		return result
	}
	result.Source = conv.Source

	monthPath := strconv.Itoa(conv.Source.MonthIndex)
	dayPath := strconv.Itoa(conv.Source.Day)

	var back conversion
	if err := c.get("/api/v1/convert/source/"+monthPath+"/"+dayPath, &back); err != nil {
		result.Error = "reverse: " + err.Error()
		return result
	}
	if back.Civil != result.Date {
		result.Error = fmt.Sprintf("round trip gave %s", back.Civil)
		return result
	}

	// The month name must address the same day as the index.
	var byName conversion
	if err := c.get("/api/v1/convert/source/"+url.PathEscape(conv.Source.MonthName)+"/"+dayPath, &byName); err != nil {
		result.Error = "by name: " + err.Error()
		return result
	}
	if byName.Civil != result.Date {
		result.Error = fmt.Sprintf("%s resolved to %s", conv.Source.MonthName, byName.Civil)
		return result
	}

	var summary daySummary
	if err := c.get("/api/v1/days/"+monthPath+"/"+dayPath, &summary); err != nil {
		result.Error = "day: " + err.Error()
		return result
	}
	if len(summary.Entries) == 0 {
		result.Error = "day summary has no entries"
		return result
	}
	for _, e := range summary.Entries {
		if e.Category != "" {
			result.Feasts++
		}
	}

	result.Success = true
	return result
}

// testBoundaries checks that the days on either side of the year are
// rejected as out of range.
func (c *checker) testBoundaries() []TestResult {
	var results []TestResult
	for _, civil := range []time.Time{
		calendar.Epoch.AddDate(0, 0, -1),
		calendar.Epoch.AddDate(0, 0, calendar.DaysInYear),
	} {
		result := TestResult{Date: calendar.FormatDate(civil)}
		err := c.get("/api/v1/convert/civil/"+result.Date, nil)
		var apiErr *apiError
		switch {
		case err == nil:
			result.Error = "expected NOT_IN_RANGE, got success"
		case errors.As(err, &apiErr) && apiErr.info.Code == "NOT_IN_RANGE":
			result.Success = true
		default:
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results
}

type apiError struct{ info ErrorInfo }

func (e *apiError) Error() string {
	if e.info.Code != "" {
		return e.info.Code + ": " + e.info.Message
	}
	return e.info.Message
}

// get fetches path and decodes the envelope's data into v.
func (c *checker) get(path string, v any) error {
	resp, err := c.client.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read error: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	if !apiResp.Success {
		if apiResp.Error == nil {
			return &apiError{ErrorInfo{Message: "unknown error"}}
		}
		return &apiError{*apiResp.Error}
	}
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(apiResp.Data, v); err != nil {
		return fmt.Errorf("data parse error: %w", err)
	}
	return nil
}

func analyzeResults(results, boundaries []TestResult) *Analysis {
	analysis := &Analysis{Boundaries: boundaries}
	for m := range analysis.ByMonth {
		analysis.ByMonth[m] = &MonthStats{MonthName: calendar.MonthName(m)}
	}

	for _, r := range results {
		analysis.TotalDays++

		var stats *MonthStats
		if calendar.ValidMonth(r.Source.MonthIndex) && r.Source.MonthName != "" {
			stats = analysis.ByMonth[r.Source.MonthIndex]
			stats.TotalDays++
		}

		if r.Success && stats != nil {
			analysis.TotalSuccess++
			stats.SuccessDays++
			if r.Feasts > 0 {
				analysis.FeastDays++
				stats.FeastDays++
			}
			continue
		}

		analysis.TotalFailed++
		analysis.AllFailures = append(analysis.AllFailures, r)
		if stats != nil {
			stats.FailedDates = append(stats.FailedDates, r.Date)
		}
	}

	for _, b := range boundaries {
		if !b.Success {
			analysis.TotalFailed++
			analysis.AllFailures = append(analysis.AllFailures, b)
		}
	}

	return analysis
}

func printSummary(w io.Writer, analysis *Analysis) {
	fmt.Fprintln(w, "================================================================")
	fmt.Fprintln(w, "SUMMARY")
	fmt.Fprintln(w, "================================================================")
	fmt.Fprintf(w, "Total Days Tested: %d\n", analysis.TotalDays)
	fmt.Fprintf(w, "Successful:        %d\n", analysis.TotalSuccess)
	fmt.Fprintf(w, "Failed:            %d\n", analysis.TotalFailed)
	fmt.Fprintf(w, "Days with feasts:  %d\n", analysis.FeastDays)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "By Month:")
	for _, stats := range analysis.ByMonth {
		status := "✓"
		if len(stats.FailedDates) > 0 {
			status = "✗"
		}
		fmt.Fprintf(w, "  %s %-8s %2d/%2d days, %2d with feasts\n",
			status, stats.MonthName, stats.SuccessDays, stats.TotalDays, stats.FeastDays)
	}
	fmt.Fprintln(w)

	if analysis.TotalFailed == 0 {
		fmt.Fprintln(w, "No failures!")
		return
	}

	fmt.Fprintln(w, "================================================================")
	fmt.Fprintln(w, "FAILURES (Date | Error)")
	fmt.Fprintln(w, "================================================================")
	for i, f := range analysis.AllFailures {
		if i == 50 {
			fmt.Fprintf(w, "  ... and %d more\n", len(analysis.AllFailures)-50)
			break
		}
		fmt.Fprintf(w, "  %s | %s\n", f.Date, f.Error)
	}
	fmt.Fprintln(w)
}

func saveResults(filename string, analysis *Analysis) error {
	output := struct {
		GeneratedAt string    `json:"generated_at"`
		Analysis    *Analysis `json:"analysis"`
	}{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Analysis:    analysis,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}

	fmt.Printf("Results saved to: %s\n", filename)
	return nil
}
