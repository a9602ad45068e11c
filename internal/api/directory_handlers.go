package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/wellnest/clinic-backend/internal/booking"
	"github.com/wellnest/clinic-backend/internal/directory"
	"github.com/wellnest/clinic-backend/internal/identity"
)

func listSpecialitiesHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.Specialities(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func doctorsBySpecialityHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_speciality_id", "id must be a positive integer")
			return
		}
		list, err := svc.DoctorsBySpeciality(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func doctorServicesHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a positive integer")
			return
		}
		list, err := svc.ServicesByDoctor(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// myServicesHandler lists the authenticated doctor's own services.
func myServicesHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, _ := identity.FromContext(r.Context())
		list, err := svc.ServicesByDoctor(r.Context(), ident.RoleID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func myProfileHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, _ := identity.FromContext(r.Context())

		switch ident.Role {
		case identity.RoleDoctor:
			profile, err := svc.DoctorProfile(r.Context(), ident.RoleID)
			if err != nil {
				handleDirectoryError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, profile)
		case identity.RolePatient:
			profile, err := svc.PatientProfile(r.Context(), ident.RoleID)
			if err != nil {
				handleDirectoryError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, profile)
		default:
			writeError(w, http.StatusForbidden, "forbidden", "no profile for this role")
		}
	}
}

func patientProfileHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a positive integer")
			return
		}
		profile, err := svc.PatientProfile(r.Context(), id)
		if err != nil {
			handleDirectoryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func regionPatientsHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, _ := identity.FromContext(r.Context())
		list, err := svc.RegionPatients(r.Context(), ident.RoleID)
		if err != nil {
			handleDirectoryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func listDoctorsHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.Doctors(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func listPatientsHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.Patients(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func overviewHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		overview, err := svc.Overview(r.Context(), time.Now())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, overview)
	}
}

func handleDirectoryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrDoctorNotFound),
		errors.Is(err, booking.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
