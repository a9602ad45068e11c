package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wellnest/clinic-backend/internal/booking"
	"github.com/wellnest/clinic-backend/internal/identity"
)

func parseID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func bookAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, _ := identity.FromContext(r.Context())

		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.Book(r.Context(), ident.RoleID, booking.BookingRequest{
			DoctorID:  req.DoctorID,
			ServiceID: req.ServiceID,
			At:        req.At,
			Comment:   req.Comment,
			Urgent:    req.Urgent,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func rescheduleAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, _ := identity.FromContext(r.Context())

		id, ok := parseID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a positive integer")
			return
		}

		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.Reschedule(r.Context(), id, ident.RoleID, booking.BookingRequest{
			DoctorID:  req.DoctorID,
			ServiceID: req.ServiceID,
			At:        req.At,
			Comment:   req.Comment,
			Urgent:    req.Urgent,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, _ := identity.FromContext(r.Context())

		id, ok := parseID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a positive integer")
			return
		}

		if err := svc.Cancel(r.Context(), id, ident.RoleID); err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "appointment cancelled and quotas refunded"})
	}
}

// resolveAppointmentHandler is the staff cancel-or-complete entry. The
// engine applies one authorization policy for every role.
func resolveAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, _ := identity.FromContext(r.Context())

		id, ok := parseID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a positive integer")
			return
		}
		action := chi.URLParam(r, "action")

		appt, err := svc.Resolve(r.Context(), id, action, booking.Caller{
			Role:   ident.Role,
			RoleID: ident.RoleID,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		if appt == nil {
			writeJSON(w, http.StatusOK, map[string]string{"message": "appointment cancelled and quotas refunded"})
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func myAppointmentsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, _ := identity.FromContext(r.Context())

		completed := false
		if v := r.URL.Query().Get("completed"); v != "" {
			completed = v == "true"
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		list, err := svc.PatientAppointments(r.Context(), ident.RoleID, &completed, limit)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		out := make([]AppointmentResponse, 0, len(list))
		for i := range list {
			out = append(out, toAppointmentResponse(&list[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func todayScheduleHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, _ := identity.FromContext(r.Context())

		list, err := svc.TodaySchedule(r.Context(), ident.RoleID, time.Now())
		if err != nil {
			handleBookingError(w, err)
			return
		}

		out := make([]AppointmentResponse, 0, len(list))
		for i := range list {
			out = append(out, toAppointmentResponse(&list[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleBookingError(w http.ResponseWriter, err error) {
	var quotaErr *booking.QuotaError
	var validationErr *booking.ValidationError
	var discardedErr *booking.RescheduleDiscardedError

	switch {
	case errors.As(err, &discardedErr):
		// The appointment no longer exists; the client must re-book, not
		// retry the reschedule.
		writeError(w, http.StatusConflict, "appointment_discarded", discardedErr.Error())
	case errors.As(err, &quotaErr):
		writeError(w, http.StatusConflict, "quota_exhausted", quotaErr.Error())
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, "validation_failed", validationErr.Error())
	case errors.Is(err, booking.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, booking.ErrInvalidAction):
		writeError(w, http.StatusBadRequest, "invalid_action", err.Error())
	case errors.Is(err, booking.ErrActorBusy):
		writeError(w, http.StatusConflict, "actor_busy", "another booking for this doctor or patient is in flight, retry shortly")
	case errors.Is(err, booking.ErrAppointmentNotFound),
		errors.Is(err, booking.ErrDoctorNotFound),
		errors.Is(err, booking.ErrPatientNotFound),
		errors.Is(err, booking.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, booking.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "persistence layer unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
