package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/wellnest/clinic-backend/internal/booking"
	"github.com/wellnest/clinic-backend/internal/directory"
	"github.com/wellnest/clinic-backend/internal/identity"
	"github.com/wellnest/clinic-backend/internal/messaging"
	"github.com/wellnest/clinic-backend/internal/prescription"
)

type RouterConfig struct {
	Booking       *booking.Service
	Identity      *identity.Service
	Tokens        *identity.TokenManager
	Directory     *directory.Service
	Messaging     *messaging.Service
	Prescriptions *prescription.Service
	PgPool        *pgxpool.Pool
	Redis         *redis.Client
	Env           string
	Version       string
	Log           zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))

	// Public endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Post("/auth/login", loginHandler(cfg.Identity))

	r.Get("/specialities", listSpecialitiesHandler(cfg.Directory))
	r.Get("/specialities/{id}/doctors", doctorsBySpecialityHandler(cfg.Directory))
	r.Get("/doctors/{id}/services", doctorServicesHandler(cfg.Directory))

	// Authenticated endpoints
	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(cfg.Tokens))

		r.Get("/me/profile", myProfileHandler(cfg.Directory))

		// Patient booking surface. Booking always uses the caller's own
		// patient id.
		r.Group(func(r chi.Router) {
			r.Use(identity.RequireRole(identity.RolePatient))
			r.Post("/appointments", bookAppointmentHandler(cfg.Booking))
			r.Put("/appointments/{id}", rescheduleAppointmentHandler(cfg.Booking))
			r.Delete("/appointments/{id}", cancelAppointmentHandler(cfg.Booking))
			r.Get("/me/appointments", myAppointmentsHandler(cfg.Booking))
			r.Get("/me/prescriptions", myPrescriptionsHandler(cfg.Prescriptions))
		})

		// Staff entry with one cancel-or-complete action; authorization is
		// decided per role inside the engine.
		r.Patch("/appointments/{id}/{action}", resolveAppointmentHandler(cfg.Booking))

		// Doctor screens
		r.Group(func(r chi.Router) {
			r.Use(identity.RequireRole(identity.RoleDoctor))
			r.Get("/doctor/today", todayScheduleHandler(cfg.Booking))
			r.Get("/doctor/patients", regionPatientsHandler(cfg.Directory))
			r.Get("/doctor/services", myServicesHandler(cfg.Directory))
			r.Get("/patients/{id}", patientProfileHandler(cfg.Directory))
			r.Post("/prescriptions", attachPrescriptionHandler(cfg.Prescriptions))
		})

		// Role inboxes
		r.Post("/messages", submitMessageHandler(cfg.Messaging))

		// Leader screens
		r.Group(func(r chi.Router) {
			r.Use(identity.RequireRole(identity.RoleLeader))
			r.Get("/leader/overview", overviewHandler(cfg.Directory))
			r.Get("/leader/doctors", listDoctorsHandler(cfg.Directory))
			r.Get("/leader/patients", listPatientsHandler(cfg.Directory))
			r.Get("/leader/messages/{kind}", pendingMessagesHandler(cfg.Messaging, cfg.Directory))
			r.Patch("/leader/messages/{kind}/{id}/ack", acknowledgeMessageHandler(cfg.Messaging))
			r.Post("/leader/patients", provisionPatientHandler(cfg.Identity))
		})
	})

	return r
}
