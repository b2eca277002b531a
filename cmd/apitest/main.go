package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zapponejosh/feast-calendar-api/internal/calendar"
	"github.com/zapponejosh/feast-calendar-api/internal/database"
)

// =============================================================================
// Response Types - Match the actual API response structure
// =============================================================================

type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ConversionResponse is the response for both /convert endpoints.
type ConversionResponse struct {
	Civil       string              `json:"civil"`
	CivilLabel  string              `json:"civil_label"`
	Source      calendar.SourceDate `json:"source"`
	SourceLabel string              `json:"source_label"`
}

// HealthResponse is the response for /health
type HealthResponse struct {
	Status string `json:"status"`
}

// =============================================================================
// Test Runner
// =============================================================================

type TestRunner struct {
	baseURL      string
	apiKey       string
	client       *http.Client
	out          io.Writer
	verbose      bool
	successCount int
	errorCount   int
	errors       []string
}

func NewTestRunner(baseURL, apiKey string, verbose bool) *TestRunner {
	return &TestRunner{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		out:     os.Stdout,
		verbose: verbose,
	}
}

func (tr *TestRunner) Run() {
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintln(tr.out, "Feast Calendar API Test Suite")
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintf(tr.out, "Base URL: %s\n", tr.baseURL)

	tr.testHealth()
	tr.testToday()
	tr.testAnchorDates()
	tr.testMonthGrid()
	tr.testEdgeCases()
	tr.testFeastsAndExport()
	if tr.apiKey != "" {
		tr.testAdmin()
	}

	tr.printSummary()
}

// =============================================================================
// Test Groups
// =============================================================================

func (tr *TestRunner) testHealth() {
	tr.printSection("Health Check")

	var health HealthResponse
	if err := tr.getData("/health", &health); err != nil {
		tr.recordError("Health", err.Error())
		return
	}

	if health.Status == "healthy" {
		tr.recordSuccess("Health check passed")
	} else {
		tr.recordError("Health", fmt.Sprintf("Unexpected status: %s", health.Status))
	}
}

func (tr *TestRunner) testToday() {
	tr.printSection("Today")

	resp, err := tr.getRaw("/api/v1/today")
	if err != nil {
		tr.recordError("Today", err.Error())
		return
	}
	defer resp.Body.Close()

	// Outside the modeled year the endpoint answers 404 NOT_IN_RANGE.
	switch resp.StatusCode {
	case http.StatusOK, http.StatusNotFound:
		tr.recordSuccess(fmt.Sprintf("Today answered HTTP %d", resp.StatusCode))
	default:
		tr.recordError("Today", fmt.Sprintf("HTTP %d", resp.StatusCode))
	}
}

func (tr *TestRunner) testAnchorDates() {
	tr.printSection("Anchor Dates")

	testCases := []struct {
		civil       string
		month       int
		day         int
		description string
	}{
		{"2025-09-11", 0, 1, "New Year (እንቁጣጣሽ)"},
		{"2025-09-27", 0, 17, "Meskel (መስቀል)"},
		{"2025-10-11", 1, 1, "First of ጥቅምት"},
		{"2026-01-07", 3, 29, "Genna (ገና)"},
		{"2026-01-19", 4, 11, "Timket (ጥምቀት)"},
		{"2026-09-05", 11, 30, "Last of ነሐሴ"},
		{"2026-09-06", 12, 1, "First of ጳጉሜ"},
		{"2026-09-10", 12, 5, "Last day of the year"},
	}

	for _, tc := range testCases {
		var conv ConversionResponse
		if err := tr.getData("/api/v1/convert/civil/"+tc.civil, &conv); err != nil {
			tr.recordError(tc.civil, err.Error())
			continue
		}
		if conv.Source.MonthIndex != tc.month || conv.Source.Day != tc.day {
			tr.recordError(tc.civil, fmt.Sprintf("Expected %d/%d, got %d/%d",
				tc.month, tc.day, conv.Source.MonthIndex, conv.Source.Day))
			continue
		}

		var back ConversionResponse
		path := fmt.Sprintf("/api/v1/convert/source/%d/%d", tc.month, tc.day)
		if err := tr.getData(path, &back); err != nil {
			tr.recordError(tc.civil, err.Error())
			continue
		}
		if back.Civil != tc.civil {
			tr.recordError(tc.civil, fmt.Sprintf("Reverse gave %s", back.Civil))
			continue
		}

		tr.recordSuccess(fmt.Sprintf("%s: %s (%s)", tc.civil, conv.SourceLabel, tc.description))
		if tr.verbose {
			fmt.Fprintf(tr.out, "    %s\n", conv.CivilLabel)
		}
	}
}

func (tr *TestRunner) testMonthGrid() {
	tr.printSection("Month Grids")

	for m := 0; m < calendar.MonthCount; m++ {
		var grid calendar.MonthGrid
		path := fmt.Sprintf("/api/v1/months/%d/grid?day=1", m)
		if err := tr.getData(path, &grid); err != nil {
			tr.recordError(calendar.MonthName(m), err.Error())
			continue
		}

		days := 0
		for _, week := range grid.Weeks {
			for _, cell := range week {
				if !cell.IsEmpty {
					days++
				}
			}
		}
		want := calendar.WeekdayOfMonthStart(m)
		if days != calendar.DaysInMonth(m) || grid.StartsOn != want {
			tr.recordError(grid.Title, fmt.Sprintf("%d days starting column %d, want %d starting %d",
				days, grid.StartsOn, calendar.DaysInMonth(m), want))
			continue
		}
		tr.recordSuccess(fmt.Sprintf("%s: %d days from column %d", grid.Title, days, grid.StartsOn))
	}
}

func (tr *TestRunner) testEdgeCases() {
	tr.printSection("Edge Cases")

	testCases := []struct {
		path string
		code string
		desc string
	}{
		{"/api/v1/convert/civil/invalid", "BAD_REQUEST", "Invalid date format rejected"},
		{"/api/v1/convert/civil/2025-09-10", "NOT_IN_RANGE", "Day before the year rejected"},
		{"/api/v1/convert/civil/2026-09-11", "NOT_IN_RANGE", "Day after the year rejected"},
		{"/api/v1/convert/source/12/6", "INVALID_DATE", "ጳጉሜ 6 rejected"},
		{"/api/v1/convert/source/13/1", "BAD_REQUEST", "Month 13 rejected"},
		{"/api/v1/convert/source/" + url.PathEscape("ህዳር") + "/1", "BAD_REQUEST", "Unknown month spelling rejected"},
		{"/api/v1/days/0/31", "INVALID_DATE", "Day 31 rejected"},
	}

	for _, tc := range testCases {
		_, apiErr, err := tr.get(tr.baseURL+tc.path, nil)
		switch {
		case err != nil:
			tr.recordError(tc.path, err.Error())
		case apiErr == nil:
			tr.recordError(tc.path, "Expected an error response")
		case apiErr.Code != tc.code:
			tr.recordError(tc.path, fmt.Sprintf("Expected %s, got %s", tc.code, apiErr.Code))
		default:
			tr.recordSuccess(tc.desc)
		}
	}
}

func (tr *TestRunner) testFeastsAndExport() {
	tr.printSection("Feasts and Export")

	var list struct {
		Count  int                     `json:"count"`
		Feasts []calendar.CatalogEntry `json:"feasts"`
	}
	if err := tr.getData("/api/v1/feasts?category=major", &list); err != nil {
		tr.recordError("Feasts", err.Error())
	} else if list.Count != len(list.Feasts) {
		tr.recordError("Feasts", fmt.Sprintf("count %d but %d feasts listed", list.Count, len(list.Feasts)))
	} else {
		tr.recordSuccess(fmt.Sprintf("%d major feasts listed", len(list.Feasts)))
	}

	resp, err := tr.getRaw("/api/v1/calendar.ics?category=major")
	if err != nil {
		tr.recordError("ICS", err.Error())
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	events := strings.Count(string(body), "BEGIN:VEVENT")
	if resp.StatusCode == http.StatusOK && events == len(list.Feasts) {
		tr.recordSuccess(fmt.Sprintf("ICS export has %d events", events))
	} else {
		tr.recordError("ICS", fmt.Sprintf("HTTP %d with %d events", resp.StatusCode, events))
	}
}

// testAdmin imports a saint on a day without feasts, checks that it shows
// up, and removes it again.
func (tr *TestRunner) testAdmin() {
	tr.printSection("Admin")

	const name = "apitest"
	body := database.ImportData{
		Metadata: database.ImportMetadata{Source: "apitest"},
		Feasts: []database.ImportFeast{
			{Category: database.FeastCategorySaint, Month: calendar.MonthName(12), Day: 4, Name: name},
		},
	}

	var imported struct {
		Imported int              `json:"imported"`
		Feasts   []database.Feast `json:"feasts"`
	}
	if err := tr.send(http.MethodPost, "/api/v1/admin/feasts", body, &imported); err != nil {
		tr.recordError("Import", err.Error())
		return
	}
	if imported.Imported != 1 || len(imported.Feasts) != 1 {
		tr.recordError("Import", fmt.Sprintf("Imported %d feasts", imported.Imported))
		return
	}
	tr.recordSuccess("Saint imported")

	if tr.dayHas(12, 4, name) {
		tr.recordSuccess("Imported saint resolves")
	} else {
		tr.recordError("Import", "Saint missing from day summary")
	}

	id := strconv.FormatInt(imported.Feasts[0].ID, 10)
	if err := tr.send(http.MethodDelete, "/api/v1/admin/feasts/"+id, nil, nil); err != nil {
		tr.recordError("Delete", err.Error())
		return
	}
	if tr.dayHas(12, 4, name) {
		tr.recordError("Delete", "Saint still resolves after delete")
	} else {
		tr.recordSuccess("Saint deleted")
	}
}

func (tr *TestRunner) dayHas(month, day int, name string) bool {
	var summary calendar.DaySummary
	if err := tr.getData(fmt.Sprintf("/api/v1/days/%d/%d", month, day), &summary); err != nil {
		return false
	}
	for _, e := range summary.Entries {
		if e.Text == name {
			return true
		}
	}
	return false
}

// =============================================================================
// Helper Methods
// =============================================================================

// getData fetches path and decodes the data of a successful response.
func (tr *TestRunner) getData(path string, target any) error {
	_, apiErr, err := tr.get(tr.baseURL+path, target)
	if err != nil {
		return err
	}
	if apiErr != nil {
		return fmt.Errorf("API error: %s (%s)", apiErr.Message, apiErr.Code)
	}
	return nil
}

func (tr *TestRunner) get(url string, target any) (int, *ErrorInfo, error) {
	resp, err := tr.client.Get(url)
	if err != nil {
		return 0, nil, err
	}
	return decode(resp, target)
}

func (tr *TestRunner) send(method, path string, payload, target any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, tr.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", tr.apiKey)

	resp, err := tr.client.Do(req)
	if err != nil {
		return err
	}
	_, apiErr, err := decode(resp, target)
	if err != nil {
		return err
	}
	if apiErr != nil {
		return fmt.Errorf("API error: %s (%s)", apiErr.Message, apiErr.Code)
	}
	return nil
}

func decode(resp *http.Response, target any) (int, *ErrorInfo, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read error: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("parse error: %w", err)
	}

	if !apiResp.Success {
		if apiResp.Error == nil {
			return resp.StatusCode, &ErrorInfo{Message: "unknown error"}, nil
		}
		return resp.StatusCode, apiResp.Error, nil
	}

	if target != nil {
		if err := json.Unmarshal(apiResp.Data, target); err != nil {
			return resp.StatusCode, nil, fmt.Errorf("data parse error: %w", err)
		}
	}
	return resp.StatusCode, nil, nil
}

func (tr *TestRunner) getRaw(path string) (*http.Response, error) {
	return tr.client.Get(tr.baseURL + path)
}

func (tr *TestRunner) printSection(name string) {
	fmt.Fprintln(tr.out)
	fmt.Fprintf(tr.out, "--- %s ---\n", name)
	fmt.Fprintln(tr.out)
}

func (tr *TestRunner) recordSuccess(msg string) {
	tr.successCount++
	fmt.Fprintf(tr.out, "  ✓ %s\n", msg)
}

func (tr *TestRunner) recordError(context, msg string) {
	tr.errorCount++
	errStr := fmt.Sprintf("%s: %s", context, msg)
	tr.errors = append(tr.errors, errStr)
	fmt.Fprintf(tr.out, "  ✗ %s\n", errStr)
}

func (tr *TestRunner) printSummary() {
	fmt.Fprintln(tr.out)
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintln(tr.out, "Summary")
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintf(tr.out, "  Passed: %d\n", tr.successCount)
	fmt.Fprintf(tr.out, "  Failed: %d\n", tr.errorCount)
	fmt.Fprintln(tr.out)

	if tr.errorCount > 0 {
		fmt.Fprintln(tr.out, "Failures:")
		for _, err := range tr.errors {
			fmt.Fprintf(tr.out, "  • %s\n", err)
		}
		fmt.Fprintln(tr.out)
		fmt.Fprintf(tr.out, "Tests completed with %d failure(s)\n", tr.errorCount)
		return
	}

	fmt.Fprintln(tr.out, "All tests passed! ✓")
}

// =============================================================================
// Main
// =============================================================================

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the API")
	apiKey := flag.String("key", os.Getenv("API_KEY"), "Admin API key; admin tests are skipped without one")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	// Check if server is reachable
	client := &http.Client{Timeout: 2 * time.Second}
	if _, err := client.Get(*baseURL + "/health"); err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", *baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}

	runner := NewTestRunner(*baseURL, *apiKey, *verbose)
	runner.Run()

	if runner.errorCount > 0 {
		os.Exit(1)
	}
}
