package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ricirt/booking-backend/internal/api/handler"
	apimw "github.com/ricirt/booking-backend/internal/api/middleware"
	"github.com/ricirt/booking-backend/internal/authn"
	"github.com/ricirt/booking-backend/internal/availability"
	"github.com/ricirt/booking-backend/internal/booking"
	"github.com/ricirt/booking-backend/internal/dispatcher"
	"github.com/ricirt/booking-backend/internal/validation"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	bookingEngine *booking.Engine,
	availabilityEngine *availability.Engine,
	authProvider authn.Provider,
	disp *dispatcher.Dispatcher,
	defaultTZ string,
	v *validation.Validator,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)          // recover panics, return 500
	r.Use(chimw.RealIP)             // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1 << 20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)      // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	ah := handler.NewAuthHandler()
	ph := handler.NewProviderHandler()
	availh := handler.NewAvailabilityHandler(availabilityEngine, defaultTZ, logger)
	apph := handler.NewAppointmentHandler(bookingEngine, v, logger)
	mh := handler.NewMetricsHandler(disp)
	hh := handler.NewHealthHandler()

	requireAuth := apimw.RequireAuth(authProvider)

	// --- routes ---
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/api/v1/metrics", mh.GetMetrics)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", ah.Signup)
		r.Post("/login", ah.Login)
		r.Post("/refresh", ah.Refresh)
		r.Post("/logout", ah.Logout)
	})

	// Availability is readable by anyone.
	r.Get("/providers/{id}/availability", availh.Get)

	r.Route("/providers", func(r chi.Router) {
		r.Get("/", ph.List)
		r.Post("/", ph.Create)
		r.Get("/{id}", ph.Get)
		r.Patch("/{id}", ph.Update)
		r.Get("/{id}/work-hours", ph.ListWorkHours)
		r.Post("/{id}/work-hours", ph.CreateWorkHour)
		r.Patch("/{id}/work-hours/{workHourID}", ph.UpdateWorkHour)
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", apph.Create)
		r.Get("/", apph.List)
		r.Delete("/{id}", apph.Cancel)
	})

	return r
}
