package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/feast-calendar-api/internal/calendar"
	"github.com/zapponejosh/feast-calendar-api/internal/config"
	"github.com/zapponejosh/feast-calendar-api/internal/database"
	"github.com/zapponejosh/feast-calendar-api/internal/export"
	"github.com/zapponejosh/feast-calendar-api/internal/logger"
)

var errCatalogConflict = errors.New("feasts conflict with the stored tables")

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	db     *database.DB
	engine atomic.Pointer[calendar.Engine]
	cfg    *config.Config

	// adminMu serializes writes to the feast store with the catalog swap
	// that follows them.
	adminMu sync.Mutex
}

// NewHandlers creates a new Handlers instance. The engine is swapped for a
// fresh one whenever the admin endpoints change the feast store.
func NewHandlers(db *database.DB, engine *calendar.Engine, cfg *config.Config) *Handlers {
	h := &Handlers{
		db:  db,
		cfg: cfg,
	}
	h.engine.Store(engine)
	return h
}

// Engine returns the engine currently serving requests.
func (h *Handlers) Engine() *calendar.Engine {
	return h.engine.Load()
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.db.Health(ctx); err != nil {
		logger.Warn(ctx, "health check failed", slog.Any("error", err))
		WriteError(w, http.StatusServiceUnavailable, "Database unhealthy", "HEALTH_CHECK_FAILED")
		return
	}

	WriteSuccess(w, map[string]string{
		"status": "healthy",
	})
}

// TodayResponse is today in both calendars.
type TodayResponse struct {
	Civil   string               `json:"civil"`
	Source  calendar.SourceDate  `json:"source"`
	Summary *calendar.DaySummary `json:"summary"`
}

// GetToday handles GET /api/v1/today
func (h *Handlers) GetToday(w http.ResponseWriter, r *http.Request) {
	engine := h.Engine()
	civil := engine.TodayCivil()

	today, err := engine.Today()
	if err != nil {
		writeNotInRange(w, civil)
		return
	}

	summary, err := engine.BuildDaySummary(today.MonthIndex, today.Day)
	if err != nil {
		logger.Error(r.Context(), "failed to build today's summary", err)
		WriteInternalError(w, "Failed to build day summary")
		return
	}

	WriteSuccess(w, TodayResponse{
		Civil:   calendar.FormatDate(civil),
		Source:  today,
		Summary: summary,
	})
}

// ConversionResponse is one day expressed in both calendars.
type ConversionResponse struct {
	Civil       string              `json:"civil"`
	CivilLabel  string              `json:"civil_label"`
	Source      calendar.SourceDate `json:"source"`
	SourceLabel string              `json:"source_label"`
}

func newConversion(src calendar.SourceDate, civil time.Time) ConversionResponse {
	return ConversionResponse{
		Civil:       calendar.FormatDate(civil),
		CivilLabel:  calendar.FormatCivilLong(civil),
		Source:      src,
		SourceLabel: calendar.FormatSourceLong(src, civil.Weekday()),
	}
}

// ConvertCivil handles GET /api/v1/convert/civil/{date}
func (h *Handlers) ConvertCivil(w http.ResponseWriter, r *http.Request) {
	dateStr := chi.URLParam(r, "date")

	civil, err := calendar.ParseDateString(dateStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid date format: %s. Use YYYY-MM-DD", dateStr))
		return
	}

	src, err := calendar.CivilToSource(civil)
	if err != nil {
		writeNotInRange(w, civil)
		return
	}

	WriteSuccess(w, newConversion(src, civil))
}

// ConvertSource handles GET /api/v1/convert/source/{month}/{day}
func (h *Handlers) ConvertSource(w http.ResponseWriter, r *http.Request) {
	month, day, ok := parseDayParams(w, chi.URLParam(r, "month"), chi.URLParam(r, "day"))
	if !ok {
		return
	}

	civil := calendar.SourceToCivil(month, day)
	src, err := calendar.CivilToSource(civil)
	if err != nil {
		logger.Error(r.Context(), "converted date left the year", err,
			slog.Int("month", month),
			slog.Int("day", day))
		WriteInternalError(w, "Failed to convert date")
		return
	}

	WriteSuccess(w, newConversion(src, civil))
}

// ListMonths handles GET /api/v1/months
func (h *Handlers) ListMonths(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, map[string]interface{}{
		"year":          calendar.Year,
		"months":        calendar.MonthOptions(),
		"default_month": h.Engine().DefaultMonth(),
	})
}

// GetMonthGrid handles GET /api/v1/months/{month}/grid?day=N
//
// With day the selection is that day; without it the selection starts on
// today and switches to the requested month.
func (h *Handlers) GetMonthGrid(w http.ResponseWriter, r *http.Request) {
	engine := h.Engine()

	month, err := parseMonth(chi.URLParam(r, "month"))
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	sel := engine.SwitchMonth(engine.NewSelection(), month)
	if dayStr := r.URL.Query().Get("day"); dayStr != "" {
		day, ok := parseDay(w, month, dayStr)
		if !ok {
			return
		}
		sel = sel.PickDay(month, day)
	}

	grid, err := engine.BuildMonthGrid(month, sel)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	WriteSuccess(w, grid)
}

// GetDay handles GET /api/v1/days/{month}/{day}
func (h *Handlers) GetDay(w http.ResponseWriter, r *http.Request) {
	month, day, ok := parseDayParams(w, chi.URLParam(r, "month"), chi.URLParam(r, "day"))
	if !ok {
		return
	}

	summary, err := h.Engine().BuildDaySummary(month, day)
	if err != nil {
		writeCalendarError(w, err)
		return
	}

	WriteSuccess(w, summary)
}

// ViewResponse is everything a calendar page renders at once.
type ViewResponse struct {
	Selection calendar.Selection     `json:"selection"`
	Months    []calendar.MonthOption `json:"months"`
	Grid      *calendar.MonthGrid    `json:"grid"`
	Summary   *calendar.DaySummary   `json:"summary"`
}

// GetView handles GET /api/v1/view?month=M&day=D
//
// It replays the page flow: start on today, switch to month if given, then
// pick day if given. The grid and summary follow the resulting selection.
func (h *Handlers) GetView(w http.ResponseWriter, r *http.Request) {
	engine := h.Engine()
	q := r.URL.Query()

	sel := engine.NewSelection()
	if monthStr := q.Get("month"); monthStr != "" {
		month, err := parseMonth(monthStr)
		if err != nil {
			WriteBadRequest(w, err.Error())
			return
		}
		sel = engine.SwitchMonth(sel, month)
	}
	if dayStr := q.Get("day"); dayStr != "" {
		day, ok := parseDay(w, sel.Month(), dayStr)
		if !ok {
			return
		}
		sel = sel.PickDay(sel.Month(), day)
	}

	grid, err := engine.BuildMonthGrid(sel.Month(), sel)
	if err != nil {
		writeCalendarError(w, err)
		return
	}
	summary, err := engine.BuildDaySummary(sel.Month(), sel.Day())
	if err != nil {
		writeCalendarError(w, err)
		return
	}

	WriteSuccess(w, ViewResponse{
		Selection: sel,
		Months:    calendar.MonthOptions(),
		Grid:      grid,
		Summary:   summary,
	})
}

// ListFeasts handles GET /api/v1/feasts?category=major
func (h *Handlers) ListFeasts(w http.ResponseWriter, r *http.Request) {
	category, ok := parseCategory(w, r.URL.Query().Get("category"))
	if !ok {
		return
	}

	feasts := h.Engine().Catalog().Feasts(category)
	if feasts == nil {
		feasts = []calendar.CatalogEntry{}
	}

	WriteSuccess(w, map[string]interface{}{
		"category": category,
		"count":    len(feasts),
		"feasts":   feasts,
	})
}

// ExportICS handles GET /api/v1/calendar.ics?category=major
func (h *Handlers) ExportICS(w http.ResponseWriter, r *http.Request) {
	category, ok := parseCategory(w, r.URL.Query().Get("category"))
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="feasts-%d.ics"`, calendar.Year))

	err := export.WriteICS(w, h.Engine(), export.ICSOptions{
		Category: category,
		Stamp:    time.Now().UTC(),
	})
	if err != nil {
		logger.Error(r.Context(), "failed to write calendar export", err)
	}
}

// =============================================================================
// Admin handlers
// =============================================================================

// ImportFeasts handles POST /api/v1/admin/feasts
//
// The body uses the importer's file format. Rows are written in one
// transaction; the batch is rejected if the resulting tables would not form
// a valid catalog.
func (h *Handlers) ImportFeasts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var data database.ImportData
	if err := decodeJSON(r, &data); err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if len(data.Feasts) == 0 {
		WriteBadRequest(w, "feasts must not be empty")
		return
	}

	feasts := make([]database.Feast, 0, len(data.Feasts))
	for i, in := range data.Feasts {
		f, err := calendar.FeastFromImport(in)
		if err != nil {
			msg := fmt.Sprintf("feast %d: %v", i, err)
			if errors.Is(err, calendar.ErrInvalidDate) {
				WriteInvalidDate(w, msg)
			} else {
				WriteBadRequest(w, msg)
			}
			return
		}
		feasts = append(feasts, f)
	}
	calendar.AssignPositions(feasts)

	h.adminMu.Lock()
	defer h.adminMu.Unlock()

	var catalog *calendar.Catalog
	err := h.db.WithTx(ctx, func(tx *database.Tx) error {
		for i := range feasts {
			if err := tx.UpsertFeast(ctx, &feasts[i]); err != nil {
				return err
			}
		}
		rows, err := tx.ListFeasts(ctx)
		if err != nil {
			return err
		}
		catalog, err = calendar.NewCatalog(rows)
		if err != nil {
			return fmt.Errorf("%w: %v", errCatalogConflict, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, database.ErrInvalidFeast) {
			WriteBadRequest(w, err.Error())
			return
		}
		if errors.Is(err, errCatalogConflict) {
			WriteConflict(w, err.Error())
			return
		}
		logger.Error(ctx, "failed to import feasts", err)
		WriteInternalError(w, "Failed to import feasts")
		return
	}

	h.engine.Store(h.Engine().WithCatalog(catalog))
	logger.Info(ctx, "feasts imported", slog.Int("count", len(feasts)))

	WriteSuccess(w, map[string]interface{}{
		"imported": len(feasts),
		"feasts":   feasts,
	})
}

// DeleteFeast handles DELETE /api/v1/admin/feasts/{id}
func (h *Handlers) DeleteFeast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		WriteBadRequest(w, "Invalid feast ID")
		return
	}

	h.adminMu.Lock()
	defer h.adminMu.Unlock()

	feast, err := h.db.GetFeastByID(ctx, id)
	if err == nil {
		err = h.db.DeleteFeast(ctx, id)
	}
	if err != nil {
		if database.IsNotFound(err) {
			WriteNotFound(w, "Feast not found")
			return
		}
		logger.Error(ctx, "failed to delete feast", err, slog.Int64("id", id))
		WriteInternalError(w, "Failed to delete feast")
		return
	}

	if err := h.reload(ctx); err != nil {
		logger.Error(ctx, "failed to reload catalog", err)
		WriteInternalError(w, "Feast deleted but catalog reload failed")
		return
	}
	logger.Info(ctx, "feast deleted", slog.Int64("id", id), slog.String("name", feast.Name))

	WriteSuccess(w, map[string]interface{}{
		"message": "Feast deleted",
		"feast":   feast,
	})
}

// ListStoredFeasts handles GET /api/v1/admin/feasts?category=saint
//
// Unlike ListFeasts it returns the stored rows, with the IDs DeleteFeast
// takes.
func (h *Handlers) ListStoredFeasts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	category, ok := parseCategory(w, r.URL.Query().Get("category"))
	if !ok {
		return
	}

	var (
		feasts []database.Feast
		err    error
	)
	if category == "" {
		feasts, err = h.db.ListFeasts(ctx)
	} else {
		feasts, err = h.db.ListFeastsByCategory(ctx, category)
	}
	if err != nil {
		logger.Error(ctx, "failed to list stored feasts", err)
		WriteInternalError(w, "Failed to list feasts")
		return
	}
	if feasts == nil {
		feasts = []database.Feast{}
	}

	WriteSuccess(w, map[string]interface{}{
		"category": category,
		"count":    len(feasts),
		"feasts":   feasts,
	})
}

// GetFeastStats handles GET /api/v1/admin/stats
func (h *Handlers) GetFeastStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.GetFeastStats(r.Context())
	if err != nil {
		logger.Error(r.Context(), "failed to get feast stats", err)
		WriteInternalError(w, "Failed to retrieve statistics")
		return
	}

	WriteSuccess(w, stats)
}

// Reload rebuilds the catalog from the feast store and swaps it in.
func (h *Handlers) Reload(ctx context.Context) error {
	h.adminMu.Lock()
	defer h.adminMu.Unlock()
	return h.reload(ctx)
}

// reload expects adminMu to be held.
func (h *Handlers) reload(ctx context.Context) error {
	catalog, err := calendar.LoadCatalog(ctx, h.db)
	if err != nil {
		return err
	}
	h.engine.Store(h.Engine().WithCatalog(catalog))
	logger.Debug(ctx, "catalog reloaded", slog.Int("feasts", len(catalog.Feasts(""))))
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// parseMonth accepts a month index (0-12) or an Amharic month name.
func parseMonth(s string) (int, error) {
	return calendar.ParseMonth(s)
}

// parseDay parses a day of month and writes a 400 if it is not a real day.
func parseDay(w http.ResponseWriter, month int, s string) (int, bool) {
	day, err := strconv.Atoi(s)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid day: %s", s))
		return 0, false
	}
	if !calendar.ValidDate(month, day) {
		WriteInvalidDate(w, fmt.Sprintf("%s has %d days, got %d", calendar.MonthName(month), calendar.DaysInMonth(month), day))
		return 0, false
	}
	return day, true
}

func parseDayParams(w http.ResponseWriter, monthStr, dayStr string) (int, int, bool) {
	month, err := parseMonth(monthStr)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return 0, 0, false
	}
	day, ok := parseDay(w, month, dayStr)
	return month, day, ok
}

func parseCategory(w http.ResponseWriter, s string) (database.FeastCategory, bool) {
	category := database.FeastCategory(s)
	if category != "" && !category.IsValid() {
		WriteBadRequest(w, fmt.Sprintf("Unknown category %q; use one of %v", s, database.ValidFeastCategories()))
		return "", false
	}
	return category, true
}

func writeNotInRange(w http.ResponseWriter, civil time.Time) {
	WriteNotInRange(w,
		fmt.Sprintf("%s is outside %d EC (%s to %s)",
			calendar.FormatDate(civil),
			calendar.Year,
			calendar.FormatDate(calendar.Epoch),
			calendar.FormatDate(calendar.SourceToCivil(calendar.MonthCount-1, calendar.DaysInMonth(calendar.MonthCount-1)))))
}

func writeCalendarError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, calendar.ErrInvalidDate):
		WriteInvalidDate(w, err.Error())
	case errors.Is(err, calendar.ErrNotInRange):
		WriteNotInRange(w, err.Error())
	default:
		WriteBadRequest(w, err.Error())
	}
}

// decodeJSON decodes JSON request body.
func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("request body is empty")
	}
	defer r.Body.Close()

	return json.NewDecoder(r.Body).Decode(v)
}
