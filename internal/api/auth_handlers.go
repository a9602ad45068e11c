package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wellnest/clinic-backend/internal/identity"
)

func loginHandler(svc *identity.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		token, user, err := svc.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, identity.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid username or password")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{
			Token:    token,
			Role:     user.Role,
			RoleID:   user.RoleID,
			Username: user.Username,
		})
	}
}

func provisionPatientHandler(svc *identity.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProvisionPatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		result, err := svc.ProvisionPatient(r.Context(), identity.ProvisionPatientInput{
			Username:  req.Username,
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Profile: identity.PatientProfile{
				Region:    req.Region,
				Exempt:    req.Exempt,
				Remaining: req.Remaining,
				BirthDate: req.BirthDate,
				Address:   req.Address,
				Phone:     req.Phone,
				CompanyID: req.CompanyID,
			},
		})
		if err != nil {
			writeError(w, http.StatusBadRequest, "provision_failed", err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"message":            "patient created successfully",
			"patient_id":         result.PatientID,
			"username":           result.Username,
			"generated_password": result.Password,
		})
	}
}
