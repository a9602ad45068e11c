package api

import (
	"encoding/json"
	"net/http"

	"github.com/wellnest/clinic-backend/internal/identity"
	"github.com/wellnest/clinic-backend/internal/prescription"
)

type attachPrescriptionRequest struct {
	AppointmentID int64  `json:"appointment_id"`
	Description   string `json:"description"`
	File          []byte `json:"file,omitempty"`
}

func attachPrescriptionHandler(svc *prescription.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req attachPrescriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.AppointmentID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "appointment_id is required")
			return
		}

		p, err := svc.Attach(r.Context(), req.AppointmentID, req.Description, req.File)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

// myPrescriptionsHandler lists the caller's prescriptions grouped per
// appointment.
func myPrescriptionsHandler(svc *prescription.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, _ := identity.FromContext(r.Context())

		list, err := svc.ForPatient(r.Context(), ident.RoleID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
