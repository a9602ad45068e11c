package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wellnest/clinic-backend/internal/directory"
	"github.com/wellnest/clinic-backend/internal/identity"
	"github.com/wellnest/clinic-backend/internal/messaging"
)

// submitMessageHandler files a message into the caller's role inbox; the
// sender is always the authenticated doctor or patient.
func submitMessageHandler(svc *messaging.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, _ := identity.FromContext(r.Context())

		var kind messaging.Kind
		switch ident.Role {
		case identity.RoleDoctor:
			kind = messaging.KindDoctor
		case identity.RolePatient:
			kind = messaging.KindPatient
		default:
			writeError(w, http.StatusForbidden, "forbidden", "leaders do not submit messages")
			return
		}

		var req SubmitMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		msg, err := svc.Submit(r.Context(), kind, ident.RoleID, req.Title, req.Text, req.Urgent)
		if err != nil {
			handleMessagingError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	}
}

// pendingMessagesHandler lists the unacknowledged messages of one inbox,
// scoped to the leader's own region.
func pendingMessagesHandler(svc *messaging.Service, dir *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, _ := identity.FromContext(r.Context())

		region, err := leaderRegion(r, dir, ident)
		if err != nil {
			writeError(w, http.StatusForbidden, "forbidden", "caller is not a registered leader")
			return
		}

		kind := messaging.Kind(chi.URLParam(r, "kind"))
		list, err := svc.Pending(r.Context(), kind, region)
		if err != nil {
			handleMessagingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func acknowledgeMessageHandler(svc *messaging.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_message_id", "id must be a positive integer")
			return
		}

		kind := messaging.Kind(chi.URLParam(r, "kind"))
		if err := svc.Acknowledge(r.Context(), kind, id); err != nil {
			handleMessagingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "message marked as done"})
	}
}

func leaderRegion(r *http.Request, dir *directory.Service, ident identity.Identity) (string, error) {
	return dir.LeaderRegion(r.Context(), ident.RoleID)
}

func handleMessagingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, messaging.ErrInvalidKind):
		writeError(w, http.StatusBadRequest, "invalid_message_type", err.Error())
	case errors.Is(err, messaging.ErrMessageNotFound):
		writeError(w, http.StatusNotFound, "message_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
