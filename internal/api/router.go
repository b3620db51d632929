package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/careline/clinic-queue/internal/auth"
	"github.com/careline/clinic-queue/internal/booking"
	"github.com/careline/clinic-queue/internal/directory"
	"github.com/careline/clinic-queue/internal/schedule"
)

type RouterConfig struct {
	Schedules *schedule.Service
	Bookings  *booking.Service
	Directory *directory.Service
	Auth      *auth.Service
	Tokens    *auth.TokenIssuer
	TokenTTL  time.Duration
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Log       zerolog.Logger
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))
	r.Use(AuthMiddleware(cfg.Tokens))

	secureCookies := cfg.Env == "prod"

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/api/v1", func(r chi.Router) {
		// Auth
		r.Post("/auth/admin/register", registerAdminHandler(cfg.Auth, cfg.TokenTTL, secureCookies))
		r.Post("/auth/admin/login", loginAdminHandler(cfg.Auth, cfg.TokenTTL, secureCookies))
		r.Post("/auth/patient/otp-request", otpRequestHandler(cfg.Auth))
		r.Post("/auth/patient/otp-verify", otpVerifyHandler(cfg.Auth, cfg.TokenTTL, secureCookies))

		// Public browsing, no principal required
		r.Get("/public/medical-centers", searchCentersHandler(cfg.Directory))
		r.Get("/public/centers/{id}/doctors", listCenterDoctorsHandler(cfg.Directory))
		r.Get("/public/doctors/{id}/slots", listOpenSlotsHandler(cfg.Schedules))

		// Admin console
		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)

			r.Get("/medical-center/me", getMyCenterHandler(cfg.Directory))

			r.Get("/doctors", listDoctorsHandler(cfg.Directory))
			r.Post("/doctors", createDoctorHandler(cfg.Directory))
			r.Delete("/doctors/{id}", deleteDoctorHandler(cfg.Directory))

			r.Get("/schedules", listSchedulesHandler(cfg.Schedules))
			r.Post("/schedules", createScheduleHandler(cfg.Schedules))
			r.Post("/schedules/{id}/publish", publishScheduleHandler(cfg.Schedules))
			r.Delete("/schedules/{id}", deleteScheduleHandler(cfg.Schedules))
			r.Get("/schedules/{id}/slots", listScheduleSlotsHandler(cfg.Schedules))

			r.Post("/slots/{id}/reserve", reserveSlotHandler(cfg.Schedules))
			r.Post("/slots/{id}/release", releaseSlotHandler(cfg.Schedules))
			r.Patch("/slots/{id}/status", updateSlotStatusHandler(cfg.Schedules))
		})

		// Shared authenticated surface
		r.Group(func(r chi.Router) {
			r.Use(RequireAuth)

			r.Get("/schedules/{id}/queue", queueStatusHandler(cfg.Schedules))
			r.Get("/bookings", listBookingsHandler(cfg.Schedules))
		})

		// Patient surface
		r.Group(func(r chi.Router) {
			r.Use(RequirePatient)

			r.Post("/bookings", bookSlotHandler(cfg.Bookings))
			r.Get("/patient/appointments", patientAppointmentsHandler(cfg.Schedules))
		})
	})

	return r
}
