package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"aegis/core"
	"aegis/storage"
)

// getDashboard returns the aggregated operations dashboard snapshot.
func (a *API) getDashboard(w http.ResponseWriter, r *http.Request) {
	snapshot, err := a.dashboard.Metrics(r.Context(), time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute dashboard metrics", err, a.logger)
		return
	}
	writeJSON(w, http.StatusOK, snapshot, a.logger)
}

// getEvents returns security events filtered by type or identity. Exactly
// one filter must be supplied.
func (a *API) getEvents(w http.ResponseWriter, r *http.Request) {
	eventType := r.URL.Query().Get("type")
	identity := r.URL.Query().Get("identity")

	var (
		events []*core.SecurityEvent
		err    error
	)
	switch {
	case eventType != "" && identity != "":
		writeError(w, http.StatusBadRequest, "Specify either type or identity, not both", nil, a.logger)
		return
	case eventType != "":
		events, err = a.recorder.EventsByType(r.Context(), core.EventType(eventType))
	case identity != "":
		events, err = a.recorder.EventsByIdentity(r.Context(), identity)
	default:
		writeError(w, http.StatusBadRequest, "type or identity query parameter is required", nil, a.logger)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load security events", err, a.logger)
		return
	}
	writeJSON(w, http.StatusOK, events, a.logger)
}

// updateEventStatusRequest is the payload for a triage status transition.
type updateEventStatusRequest struct {
	Status core.EventStatus `json:"status" validate:"required"`
}

// updateEventStatus transitions a security event through its triage
// lifecycle. Unknown events return 404; transitions the lifecycle forbids
// return 409.
func (a *API) updateEventStatus(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["id"]

	var req updateEventStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err, a.logger)
		return
	}
	if err := a.validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Validation failed: "+err.Error(), nil, a.logger)
		return
	}
	if !req.Status.IsValid() {
		writeError(w, http.StatusUnprocessableEntity, "Unknown event status: "+req.Status.String(), nil, a.logger)
		return
	}

	event, err := a.recorder.UpdateStatus(r.Context(), eventID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrEventNotFound):
			writeError(w, http.StatusNotFound, "Security event not found", nil, a.logger)
		case errors.Is(err, core.ErrInvalidStateTransition):
			writeError(w, http.StatusConflict, err.Error(), nil, a.logger)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to update event status", err, a.logger)
		}
		return
	}

	writeJSON(w, http.StatusOK, event, a.logger)
}
