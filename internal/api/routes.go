package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zapponejosh/feast-calendar-api/internal/config"
)

// SetupRoutes configures all HTTP routes and returns the router.
//
// Route structure:
//
//	GET    /health
//	GET    /api/v1/today
//	GET    /api/v1/convert/civil/{date}
//	GET    /api/v1/convert/source/{month}/{day}
//	GET    /api/v1/months
//	GET    /api/v1/months/{month}/grid?day=
//	GET    /api/v1/days/{month}/{day}
//	GET    /api/v1/view?month=&day=
//	GET    /api/v1/feasts?category=
//	GET    /api/v1/calendar.ics?category=
//	GET    /api/v1/admin/stats          (API key)
//	GET    /api/v1/admin/feasts?category= (API key)
//	POST   /api/v1/admin/feasts         (API key)
//	DELETE /api/v1/admin/feasts/{id}    (API key)
//
// {month} is an index 0-12 or an Amharic month name.
func SetupRoutes(handlers *Handlers, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		LoggingMiddleware(logger),
		RecoveryMiddleware(logger),
		CORSMiddleware(),
		middleware.Timeout(30*time.Second),
	)

	r.Get("/health", handlers.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		// ======================================================================
		// Public routes
		// ======================================================================
		r.Get("/today", handlers.GetToday)
		r.Get("/convert/civil/{date}", handlers.ConvertCivil)
		r.Get("/convert/source/{month}/{day}", handlers.ConvertSource)
		r.Get("/months", handlers.ListMonths)
		r.Get("/months/{month}/grid", handlers.GetMonthGrid)
		r.Get("/days/{month}/{day}", handlers.GetDay)
		r.Get("/view", handlers.GetView)
		r.Get("/feasts", handlers.ListFeasts)
		r.Get("/calendar.ics", handlers.ExportICS)

		// ======================================================================
		// Admin routes (API key)
		// ======================================================================
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg, logger))
			r.Get("/admin/stats", handlers.GetFeastStats)
			r.Get("/admin/feasts", handlers.ListStoredFeasts)
			r.Post("/admin/feasts", handlers.ImportFeasts)
			r.Delete("/admin/feasts/{id}", handlers.DeleteFeast)
		})
	})

	return r
}
