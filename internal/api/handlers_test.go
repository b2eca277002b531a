package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zapponejosh/feast-calendar-api/internal/calendar"
	"github.com/zapponejosh/feast-calendar-api/internal/config"
	"github.com/zapponejosh/feast-calendar-api/internal/database"
)

// =============================================================================
// TEST SETUP HELPERS
// =============================================================================

// testEnv sets up a complete test environment with database, config, and handlers
type testEnv struct {
	db       *database.DB
	cfg      *config.Config
	handlers *Handlers
	router   http.Handler
	adminKey string
	cleanup  func()
}

// Meskel, 2025-09-27.
var testNow = time.Date(2025, time.September, 27, 10, 0, 0, 0, time.UTC)

// setupTest creates a fresh test environment with the built-in feasts
// seeded and the clock fixed at testNow.
func setupTest(t *testing.T) *testEnv {
	t.Helper()
	return setupTestAt(t, testNow)
}

func setupTestAt(t *testing.T, now time.Time) *testEnv {
	t.Helper()

	dbCfg := database.Config{
		Path:            ":memory:",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Quiet during tests
	}))

	db, err := database.Open(dbCfg, logger)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	ctx := context.Background()
	if _, err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	if _, err := db.SeedFeasts(ctx, calendar.DefaultFeasts()); err != nil {
		t.Fatalf("seed test database: %v", err)
	}

	catalog, err := calendar.LoadCatalog(ctx, db)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	engine := calendar.NewEngine(catalog, calendar.WithClock(func() time.Time { return now }))

	adminKey := "admin-test-key-32-characters-minimum-length"
	cfg := &config.Config{
		Port:         8080,
		Env:          config.EnvDevelopment,
		DatabasePath: ":memory:",
		APIKey:       adminKey,
		Timezone:     "UTC",
		LogLevel:     "error",
		LogFormat:    "text",
	}

	handlers := NewHandlers(db, engine, cfg)

	return &testEnv{
		db:       db,
		cfg:      cfg,
		handlers: handlers,
		router:   SetupRoutes(handlers, cfg, logger),
		adminKey: adminKey,
		cleanup: func() {
			db.Close()
		},
	}
}

// makeRequest is a helper to make HTTP requests with optional API key
func makeRequest(method, path string, body interface{}, apiKey string) *http.Request {
	var bodyReader io.Reader
	if body != nil {
		jsonData, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(jsonData)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")

	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	return req
}

func (env *testEnv) do(method, path string, body interface{}, apiKey string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, makeRequest(method, path, body, apiKey))
	return rr
}

// testResponse mirrors Response with the payload left raw.
type testResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorInfo      `json:"error"`
}

// parseResponse parses the envelope and decodes its data into v.
func parseResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) testResponse {
	t.Helper()

	var resp testResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v, body: %s", err, rr.Body.String())
	}
	if v != nil && resp.Data != nil {
		if err := json.Unmarshal(resp.Data, v); err != nil {
			t.Fatalf("decode data: %v, data: %s", err, resp.Data)
		}
	}
	return resp
}

func urlPath(s string) string { return url.PathEscape(s) }

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	if rr.Code != status {
		t.Fatalf("Status = %d, want %d, body: %s", rr.Code, status, rr.Body.String())
	}
	resp := parseResponse(t, rr, nil)
	if resp.Success || resp.Error == nil || resp.Error.Code != code {
		t.Errorf("error = %+v, want code %s", resp.Error, code)
	}
}

// =============================================================================
// MIDDLEWARE TESTS
// =============================================================================

func TestAuthMiddleware_ValidKey(t *testing.T) {
	env := setupTest(t)
	defer env.cleanup()

	handler := AuthMiddleware(env.cfg, slog.Default())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, makeRequest("GET", "/test", nil, env.adminKey))

	if rr.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_MissingKey(t *testing.T) {
	env := setupTest(t)
	defer env.cleanup()

	rr := env.do("GET", "/api/v1/admin/stats", nil, "")
	expectError(t, rr, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestAuthMiddleware_InvalidKey(t *testing.T) {
	env := setupTest(t)
	defer env.cleanup()

	rr := env.do("GET", "/api/v1/admin/stats", nil, "key_invalid123456789")
	expectError(t, rr, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestAuthMiddleware_DevelopmentWithoutKey(t *testing.T) {
	cfg := &config.Config{Env: config.EnvDevelopment}

	handler := AuthMiddleware(cfg, slog.Default())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, makeRequest("GET", "/test", nil, ""))

	if rr.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d (open in development)", rr.Code, http.StatusOK)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := setupTest(t)
	defer env.cleanup()

	rr := env.do("OPTIONS", "/api/v1/months", nil, "")
	if rr.Code != http.StatusNoContent {
		t.Errorf("Status = %d, want %d", rr.Code, http.StatusNoContent)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing Access-Control-Allow-Origin")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}),
	)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, makeRequest("GET", "/panic", nil, ""))
	expectError(t, rr, http.StatusInternalServerError, CodeInternal)
}

// =============================================================================
// CALENDAR ENDPOINT TESTS
// =============================================================================

func TestHealthCheck(t *testing.T) {
	env := setupTest(t)
	defer env.cleanup()

	rr := env.do("GET", "/health", nil, "")
	if rr.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestGetToday(t *testing.T) {
	env := setupTest(t)
	defer env.cleanup()

	rr := env.do("GET", "/api/v1/today", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
	}

	var today TodayResponse
	parseResponse(t, rr, &today)

	if today.Civil != "2025-09-27" {
		t.Errorf("Civil = %q", today.Civil)
	}
	if today.Source.MonthIndex != 0 || today.Source.Day != 17 {
		t.Errorf("Source = %+v, want Meskerem 17", today.Source)
	}
	if !today.Summary.IsToday || today.Summary.Entries[0].Text != "መስቀል" {
		t.Errorf("Summary = %+v", today.Summary)
	}
}

func TestGetToday_OutOfRange(t *testing.T) {
	env := setupTestAt(t, time.Date(2027, time.March, 1, 12, 0, 0, 0, time.UTC))
	defer env.cleanup()

	rr := env.do("GET", "/api/v1/today", nil, "")
	expectError(t, rr, http.StatusNotFound, CodeNotInRange)
}

func TestConvertCivil(t *testing.T) {
	env := setupTest(t)
	defer env.cleanup()

	tests := []struct {
		name     string
		path     string
		status   int
		code     string
		wantDay  int
		wantName string
	}{
		{"Genna", "/api/v1/convert/civil/2026-01-07", http.StatusOK, "", 29, "ታኅሣሥ"},
		{"epoch", "/api/v1/convert/civil/2025-09-11", http.StatusOK, "", 1, "መስከረም"},
		{"before epoch", "/api/v1/convert/civil/2025-09-10", http.StatusNotFound, CodeNotInRange, 0, ""},
		{"bad format", "/api/v1/convert/civil/11-09-2025", http.StatusBadRequest, CodeBadRequest, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do("GET", tt.path, nil, "")
			if tt.code != "" {
				expectError(t, rr, tt.status, tt.code)
				return
			}
			if rr.Code != tt.status {
				t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
			}
			var conv ConversionResponse
			parseResponse(t, rr, &conv)
			if conv.Source.Day != tt.wantDay || conv.Source.MonthName != tt.wantName {
				t.Errorf("Source = %+v", conv.Source)
			}
		})
	}
}

func TestConvertSource(t *testing.T) {
	env := setupTest(t)
	defer env.cleanup()

	rr := env.do("GET", "/api/v1/convert/source/12/5", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
	}
	var conv ConversionResponse
	parseResponse(t, rr, &conv)
	if conv.Civil != "2026-09-10" || conv.CivilLabel != "Thursday, September 10, 2026" {
		t.Errorf("conversion = %+v", conv)
	}

	// Month by Amharic name.
	rr = env.do("GET", "/api/v1/convert/source/"+urlPath("መስከረም")+"/1", nil, "")
	parseResponse(t, rr, &conv)
	if conv.Civil != "2025-09-11" {
		t.Errorf("Civil = %q, want 2025-09-11", conv.Civil)
	}

	expectError(t, env.do("GET", "/api/v1/convert/source/12/6", nil, ""), http.StatusBadRequest, CodeInvalidDate)
	expectError(t, env.do("GET", "/api/v1/convert/source/13/1", nil, ""), http.StatusBadRequest, CodeBadRequest)
}

func TestListMonths(t *testing.T) {
	env := setupTest(t)
	defer env.cleanup()

	rr := env.do("GET", "/api/v1/months", nil, "")
	var data struct {
		Year         int                    `json:"year"`
		Months       []calendar.MonthOption `json:"months"`
		DefaultMonth int                    `json:"default_month"`
	}
	parseResponse(t, rr, &data)

	if data.Year != 2018 || len(data.Months) != 13 || data.DefaultMonth != 0 {
		t.Errorf("months = %+v", data)
	}
}

func TestGetMonthGrid(t *testing.T) {
	env := setupTest(t)
	defer env.cleanup()

	rr := env.do("GET", "/api/v1/months/0/grid", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
	}

	var grid calendar.MonthGrid
	parseResponse(t, rr, &grid)

	if grid.StartsOn != 4 || grid.DayCount != 30 {
		t.Errorf("grid header = starts %d, %d days", grid.StartsOn, grid.DayCount)
	}
	meskel := grid.Weeks[2][6]
	if !meskel.IsToday || !meskel.IsSelected || meskel.FeastClass != calendar.FeastClassMajor {
		t.Errorf("Meskel cell = %+v", meskel)
	}
}

func TestGetMonthGrid_SwitchKeepsDay(t *testing.T) {
	env := setupTest(t)
	defer env.cleanup()

	// Today is Meskerem 17; switching to Tir keeps day 17.
	rr := env.do("GET", "/api/v1/months/4/grid", nil, "")
	var grid calendar.MonthGrid
	parseResponse(t, rr, &grid)

	selected := 0
	for _, week := range grid.Weeks {
		for _, cell := range week {
			if cell.IsSelected {
				selected++
				if cell.Source.Day != 17 {
					t.Errorf("selected day %d, want 17", cell.Source.Day)
				}
			}
		}
	}
	if selected != 1 {
		t.Errorf("%d selected cells, want 1", selected)
	}

	// Pagume has no day 17: falls back to day 1.
	rr = env.do("GET", "/api/v1/months/12/grid", nil, "")
	parseResponse(t, rr, &grid)
	if !grid.Weeks[0][0].IsSelected {
		t.Error("Pagume 1 should be selected")
	}
}

func TestGetMonthGrid_Errors(t *testing.T) {
	env := setupTest(t)
	defer env.cleanup()

	expectError(t, env.do("GET", "/api/v1/months/13/grid", nil, ""), http.StatusBadRequest, CodeBadRequest)
	expectError(t, env.do("GET", "/api/v1/months/12/grid?day=6", nil, ""), http.StatusBadRequest, CodeInvalidDate)
	expectError(t, env.do("GET", "/api/v1/months/0/grid?day=x", nil, ""), http.StatusBadRequest, CodeBadRequest)
}

func TestGetDay(t *testing.T) {
	env := setupTest(t)
	defer env.cleanup()

	rr := env.do("GET", "/api/v1/days/4/13", nil, "")
	var summary calendar.DaySummary
	parseResponse(t, rr, &summary)

	if len(summary.Entries) != 2 {
		t.Fatalf("Entries = %+v, want yearly and monthly", summary.Entries)
	}
	if summary.Entries[0].Category != database.FeastCategoryYearly || summary.Entries[0].Label != "ዓመታዊ በዓል" {
		t.Errorf("first entry = %+v", summary.Entries[0])
	}

	rr = env.do("GET", "/api/v1/days/0/4", nil, "")
	parseResponse(t, rr, &summary)
	if len(summary.Entries) != 1 || summary.Entries[0].Text != calendar.Placeholder {
		t.Errorf("Entries = %+v, want placeholder", summary.Entries)
	}

	expectError(t, env.do("GET", "/api/v1/days/0/31", nil, ""), http.StatusBadRequest, CodeInvalidDate)
}

func TestGetView(t *testing.T) {
	env := setupTest(t)
	defer env.cleanup()

	rr := env.do("GET", "/api/v1/view", nil, "")
	var view struct {
		Selection struct {
			MonthIndex int `json:"month_index"`
			Day        int `json:"day"`
		} `json:"selection"`
		Months  []calendar.MonthOption `json:"months"`
		Grid    calendar.MonthGrid     `json:"grid"`
		Summary calendar.DaySummary    `json:"summary"`
	}
	parseResponse(t, rr, &view)

	if view.Selection.MonthIndex != 0 || view.Selection.Day != 17 {
		t.Errorf("Selection = %+v, want today", view.Selection)
	}
	if view.Grid.MonthIndex != 0 || view.Summary.Source.Day != 17 || len(view.Months) != 13 {
		t.Errorf("view = grid %d, summary %+v", view.Grid.MonthIndex, view.Summary.Source)
	}

	// Switch to Pagume, then pick day 5.
	rr = env.do("GET", "/api/v1/view?month=12&day=5", nil, "")
	parseResponse(t, rr, &view)
	if view.Selection.MonthIndex != 12 || view.Selection.Day != 5 || view.Summary.Source.Day != 5 {
		t.Errorf("Selection = %+v", view.Selection)
	}

	expectError(t, env.do("GET", "/api/v1/view?month=12&day=17", nil, ""), http.StatusBadRequest, CodeInvalidDate)
}

func TestListFeasts(t *testing.T) {
	env := setupTest(t)
	defer env.cleanup()

	rr := env.do("GET", "/api/v1/feasts?category=major", nil, "")
	var data struct {
		Count  int                     `json:"count"`
		Feasts []calendar.CatalogEntry `json:"feasts"`
	}
	parseResponse(t, rr, &data)
	if data.Count != 14 || len(data.Feasts) != 14 {
		t.Errorf("major count = %d", data.Count)
	}

	expectError(t, env.do("GET", "/api/v1/feasts?category=weekly", nil, ""), http.StatusBadRequest, CodeBadRequest)
}

func TestExportICS(t *testing.T) {
	env := setupTest(t)
	defer env.cleanup()

	rr := env.do("GET", "/api/v1/calendar.ics?category=major", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Content-Type = %q", ct)
	}
	if n := strings.Count(rr.Body.String(), "BEGIN:VEVENT"); n != 14 {
		t.Errorf("%d events, want 14", n)
	}
}

// =============================================================================
// ADMIN ENDPOINT TESTS
// =============================================================================

func TestImportFeasts(t *testing.T) {
	env := setupTest(t)
	defer env.cleanup()

	body := database.ImportData{
		Metadata: database.ImportMetadata{Source: "test"},
		Feasts: []database.ImportFeast{
			{Category: database.FeastCategorySaint, Month: "መስከረም", Day: 4, Name: "ቅዱስ ዮሐንስ ሐዲስ"},
		},
	}
	rr := env.do("POST", "/api/v1/admin/feasts", body, env.adminKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
	}

	// The new saint is visible without a restart.
	rr = env.do("GET", "/api/v1/days/0/4", nil, "")
	var summary calendar.DaySummary
	parseResponse(t, rr, &summary)
	if len(summary.Entries) != 1 || summary.Entries[0].Text != "ቅዱስ ዮሐንስ ሐዲስ" {
		t.Errorf("Entries = %+v", summary.Entries)
	}
}

func TestImportFeasts_Errors(t *testing.T) {
	env := setupTest(t)
	defer env.cleanup()

	unknownMonth := database.ImportData{Feasts: []database.ImportFeast{
		{Category: database.FeastCategorySaint, Month: "ህዳር", Day: 4, Name: "x"},
	}}
	expectError(t, env.do("POST", "/api/v1/admin/feasts", unknownMonth, env.adminKey), http.StatusBadRequest, CodeBadRequest)

	pagume6 := database.ImportData{Feasts: []database.ImportFeast{
		{Category: database.FeastCategorySaint, Month: "ጳጉሜ", Day: 6, Name: "x"},
	}}
	expectError(t, env.do("POST", "/api/v1/admin/feasts", pagume6, env.adminKey), http.StatusBadRequest, CodeInvalidDate)

	// A second major feast on Meskel conflicts with the stored one.
	conflict := database.ImportData{Feasts: []database.ImportFeast{
		{Category: database.FeastCategoryMajor, Month: "መስከረም", Day: 17, Name: "ሌላ"},
	}}
	expectError(t, env.do("POST", "/api/v1/admin/feasts", conflict, env.adminKey), http.StatusConflict, CodeConflict)

	// The rejected row was rolled back.
	stats, err := env.db.GetFeastStats(context.Background())
	if err != nil {
		t.Fatalf("GetFeastStats() error: %v", err)
	}
	if stats.Total != len(calendar.DefaultFeasts()) {
		t.Errorf("Total = %d, want %d", stats.Total, len(calendar.DefaultFeasts()))
	}

	expectError(t, env.do("POST", "/api/v1/admin/feasts", database.ImportData{}, env.adminKey), http.StatusBadRequest, CodeBadRequest)
}

func TestDeleteFeast(t *testing.T) {
	env := setupTest(t)
	defer env.cleanup()
	ctx := context.Background()

	saints, err := env.db.ListFeastsByCategory(ctx, database.FeastCategorySaint)
	if err != nil || len(saints) == 0 {
		t.Fatalf("ListFeastsByCategory() = %d, %v", len(saints), err)
	}
	target := saints[0] // Meskerem 1

	rr := env.do("DELETE", "/api/v1/admin/feasts/"+itoa(target.ID), nil, env.adminKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
	}
	var deleted struct {
		Feast database.Feast `json:"feast"`
	}
	parseResponse(t, rr, &deleted)
	if deleted.Feast.ID != target.ID || deleted.Feast.Name != target.Name {
		t.Errorf("deleted feast = %+v, want %+v", deleted.Feast, target)
	}

	res := env.handlers.Engine().Resolve(0, 1)
	for _, o := range res.All {
		if o.Name == target.Name {
			t.Errorf("%q still resolves after delete", target.Name)
		}
	}

	expectError(t, env.do("DELETE", "/api/v1/admin/feasts/"+itoa(target.ID), nil, env.adminKey), http.StatusNotFound, CodeNotFound)
	expectError(t, env.do("DELETE", "/api/v1/admin/feasts/abc", nil, env.adminKey), http.StatusBadRequest, CodeBadRequest)
}

func TestImportFeasts_PositionsPerDay(t *testing.T) {
	env := setupTest(t)
	defer env.cleanup()

	body := database.ImportData{Feasts: []database.ImportFeast{
		{Category: database.FeastCategorySaint, Month: "መስከረም", Day: 4, Name: "first"},
		{Category: database.FeastCategorySaint, Month: "ጳጉሜ", Day: 4, Name: "other day"},
		{Category: database.FeastCategorySaint, Month: "መስከረም", Day: 4, Name: "second"},
	}}
	rr := env.do("POST", "/api/v1/admin/feasts", body, env.adminKey)

	var imported struct {
		Feasts []database.Feast `json:"feasts"`
	}
	parseResponse(t, rr, &imported)
	if len(imported.Feasts) != 3 {
		t.Fatalf("imported %d feasts, want 3", len(imported.Feasts))
	}
	for i, want := range []int{1, 1, 2} {
		if got := imported.Feasts[i].Position; got != want {
			t.Errorf("%s position = %d, want %d", imported.Feasts[i].Name, got, want)
		}
	}
}

func TestListStoredFeasts(t *testing.T) {
	env := setupTest(t)
	defer env.cleanup()

	rr := env.do("GET", "/api/v1/admin/feasts?category=major", nil, env.adminKey)
	var list struct {
		Count  int              `json:"count"`
		Feasts []database.Feast `json:"feasts"`
	}
	parseResponse(t, rr, &list)
	if list.Count != 14 || len(list.Feasts) != 14 {
		t.Fatalf("major rows = %d (count %d), want 14", len(list.Feasts), list.Count)
	}
	for _, f := range list.Feasts {
		if f.ID == 0 || f.Category != database.FeastCategoryMajor {
			t.Errorf("row = %+v", f)
		}
	}

	rr = env.do("GET", "/api/v1/admin/feasts", nil, env.adminKey)
	parseResponse(t, rr, &list)
	if list.Count != len(calendar.DefaultFeasts()) {
		t.Errorf("all rows = %d, want %d", list.Count, len(calendar.DefaultFeasts()))
	}

	expectError(t, env.do("GET", "/api/v1/admin/feasts?category=weekly", nil, env.adminKey), http.StatusBadRequest, CodeBadRequest)
	expectError(t, env.do("GET", "/api/v1/admin/feasts", nil, ""), http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestAdminWrites_Concurrent(t *testing.T) {
	env := setupTest(t)
	defer env.cleanup()
	ctx := context.Background()

	saints, err := env.db.ListFeastsByCategory(ctx, database.FeastCategorySaint)
	if err != nil || len(saints) < 3 {
		t.Fatalf("ListFeastsByCategory() = %d, %v", len(saints), err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			body := database.ImportData{Feasts: []database.ImportFeast{
				{Category: database.FeastCategorySaint, Month: "ጳጉሜ", Day: i + 1, Name: "concurrent " + strconv.Itoa(i)},
			}}
			if rr := env.do("POST", "/api/v1/admin/feasts", body, env.adminKey); rr.Code != http.StatusOK {
				t.Errorf("import %d: status %d", i, rr.Code)
			}
		}(i)
		go func(id int64) {
			defer wg.Done()
			if rr := env.do("DELETE", "/api/v1/admin/feasts/"+itoa(id), nil, env.adminKey); rr.Code != http.StatusOK {
				t.Errorf("delete %d: status %d", id, rr.Code)
			}
		}(saints[i].ID)
	}
	wg.Wait()

	stored, err := env.db.ListFeasts(ctx)
	if err != nil {
		t.Fatalf("ListFeasts() error: %v", err)
	}
	if want := len(calendar.DefaultFeasts()); len(stored) != want {
		t.Errorf("stored %d feasts, want %d", len(stored), want)
	}

	// The serving catalog matches the store after every write has landed.
	served := env.handlers.Engine().Catalog().Feasts("")
	if len(served) != len(stored) {
		t.Fatalf("serving %d feasts, store has %d", len(served), len(stored))
	}
	names := make(map[string]int)
	for _, f := range stored {
		names[f.Name]++
	}
	for _, e := range served {
		names[e.Name]--
	}
	for name, n := range names {
		if n != 0 {
			t.Errorf("%q differs between store and catalog by %d", name, n)
		}
	}
}

func TestHandlerErrorLogsRequestID(t *testing.T) {
	env := setupTest(t)
	defer env.cleanup()

	var buf bytes.Buffer
	var mu sync.Mutex
	log := slog.New(slog.NewTextHandler(&lockedWriter{w: &buf, mu: &mu}, nil))
	router := SetupRoutes(env.handlers, env.cfg, log)

	env.db.Close()

	req := makeRequest("GET", "/health", nil, "")
	req.Header.Set("X-Request-Id", "req-abc")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	expectError(t, rr, http.StatusServiceUnavailable, "HEALTH_CHECK_FAILED")

	mu.Lock()
	defer mu.Unlock()
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "health check failed") {
			if !strings.Contains(line, "request_id=req-abc") {
				t.Errorf("warning lacks request id: %s", line)
			}
			return
		}
	}
	t.Errorf("no health warning logged:\n%s", buf.String())
}

// lockedWriter guards a buffer shared with the server's log handler.
type lockedWriter struct {
	w  io.Writer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func TestGetFeastStats(t *testing.T) {
	env := setupTest(t)
	defer env.cleanup()

	rr := env.do("GET", "/api/v1/admin/stats", nil, env.adminKey)
	var stats database.FeastStats
	parseResponse(t, rr, &stats)

	if stats.Total != len(calendar.DefaultFeasts()) {
		t.Errorf("Total = %d, want %d", stats.Total, len(calendar.DefaultFeasts()))
	}
	if stats.ByCategory[database.FeastCategoryMonthly] != 18 {
		t.Errorf("monthly = %d, want 18", stats.ByCategory[database.FeastCategoryMonthly])
	}
}
